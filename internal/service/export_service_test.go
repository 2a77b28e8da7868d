package service_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"invoicerecon/internal/config"
	"invoicerecon/internal/csvexport"
	"invoicerecon/internal/domain"
	"invoicerecon/internal/invoice"
	"invoicerecon/internal/port"
	"invoicerecon/internal/reconcile"
	"invoicerecon/internal/service"
	"invoicerecon/mocks"
)

func mixedSummary() *reconcile.BatchSummary {
	s := reconcile.NewBatchSummary(2)
	s.Add(reconcile.Passed("ok.pdf", []invoice.MergedRecord{{
		InvoiceNumber: "INV-1",
		FinalAmount:   invoice.MustAmount("118"),
		TaxableValue:  invoice.MustAmount("100"),
	}}, nil), false)
	doc := pdfDoc("bad.pdf")
	s.Add(reconcile.Failed(&doc, domain.FailureReasonNone, domain.ErrParse), false)
	return s
}

func storageConfig() *config.StorageConfig {
	return &config.StorageConfig{Bucket: "recon", Prefix: "sessions", PresignExpiry: 900}
}

func TestExportService_Render(t *testing.T) {
	svc := service.NewExportService(nil, storageConfig(), &config.ExportConfig{CSVBOM: true}, nullLogger())
	summary := mixedSummary()

	csvArt, err := svc.Render(service.ArtifactPassedCSV, summary)
	require.NoError(t, err)
	assert.Equal(t, "passed_invoices.csv", csvArt.Filename)
	assert.True(t, bytes.HasPrefix(csvArt.Data, csvexport.BOM))
	assert.Contains(t, string(csvArt.Data), "118.00,INV-1")

	xlsx, err := svc.Render(service.ArtifactPassedXLSX, summary)
	require.NoError(t, err)
	assert.Equal(t, "passed_invoices.xlsx", xlsx.Filename)
	assert.True(t, bytes.HasPrefix(xlsx.Data, []byte("PK")))

	zipArt, err := svc.Render(service.ArtifactFailedZIP, summary)
	require.NoError(t, err)
	assert.Equal(t, "failed_invoices.zip", zipArt.Filename)
	assert.Equal(t, "application/zip", zipArt.ContentType)
}

func TestExportService_Render_NothingToExport(t *testing.T) {
	svc := service.NewExportService(nil, storageConfig(), &config.ExportConfig{}, nullLogger())
	empty := reconcile.NewBatchSummary(0)

	for _, kind := range service.ArtifactKinds {
		_, err := svc.Render(kind, empty)
		assert.ErrorIs(t, err, domain.ErrNothingToExport, kind)
	}
	_, err := svc.RenderAll(empty)
	assert.ErrorIs(t, err, domain.ErrNothingToExport)

	_, err = svc.Render("report.pdf", mixedSummary())
	assert.Error(t, err)
}

func TestExportService_RenderAll_SkipsEmpty(t *testing.T) {
	svc := service.NewExportService(nil, storageConfig(), &config.ExportConfig{}, nullLogger())
	s := reconcile.NewBatchSummary(1)
	doc := pdfDoc("bad.pdf")
	s.Add(reconcile.Failed(&doc, domain.FailureReasonNone, domain.ErrStructure), false)

	arts, err := svc.RenderAll(s)
	require.NoError(t, err)
	require.Len(t, arts, 1)
	assert.Equal(t, service.ArtifactFailedZIP, arts[0].Kind)
}

func TestExportService_Publish(t *testing.T) {
	storage := new(mocks.MockObjectStorage)
	svc := service.NewExportService(storage, storageConfig(), &config.ExportConfig{}, nullLogger())

	arts, err := svc.RenderAll(mixedSummary())
	require.NoError(t, err)
	require.Len(t, arts, 3)

	storage.On("Upload", mock.Anything, mock.MatchedBy(func(in port.UploadInput) bool {
		return in.Bucket == "recon" && in.Filename != "" && in.Size > 0
	})).Return(&port.UploadOutput{ETag: "e"}, nil).Times(3)
	storage.On("GetPresignedURL", mock.Anything, "recon", mock.AnythingOfType("string"), int64(900)).
		Return("https://signed.example/x", nil).Times(3)

	published, err := svc.Publish(context.Background(), "abc", arts)
	require.NoError(t, err)
	require.Len(t, published, 3)
	assert.Equal(t, "sessions/abc/passed_invoices.csv", published[0].Key)
	assert.Equal(t, "sessions/abc/failed_invoices.zip", published[2].Key)
	assert.Equal(t, "https://signed.example/x", published[1].URL)
	assert.Equal(t, int64(900), published[1].ExpiresIn)
	storage.AssertExpectations(t)
}

func TestExportService_Publish_Errors(t *testing.T) {
	arts := []*service.Artifact{{Kind: service.ArtifactPassedCSV, Filename: "passed_invoices.csv", Data: []byte("x")}}

	disabled := service.NewExportService(nil, storageConfig(), &config.ExportConfig{}, nullLogger())
	_, err := disabled.Publish(context.Background(), "abc", arts)
	assert.ErrorIs(t, err, domain.ErrStorageDisabled)

	noBucket := service.NewExportService(new(mocks.MockObjectStorage), &config.StorageConfig{}, &config.ExportConfig{}, nullLogger())
	_, err = noBucket.Publish(context.Background(), "abc", arts)
	assert.ErrorIs(t, err, domain.ErrStorageDisabled)

	storage := new(mocks.MockObjectStorage)
	storage.On("Upload", mock.Anything, mock.Anything).Return(nil, errors.New("access denied"))
	failing := service.NewExportService(storage, storageConfig(), &config.ExportConfig{}, nullLogger())
	_, err = failing.Publish(context.Background(), "abc", arts)
	assert.ErrorContains(t, err, "access denied")
}

func TestExportService_Unpublish(t *testing.T) {
	storage := new(mocks.MockObjectStorage)
	for _, key := range []string{
		"sessions/abc/passed_invoices.csv",
		"sessions/abc/passed_invoices.xlsx",
		"sessions/abc/failed_invoices.zip",
	} {
		storage.On("Delete", mock.Anything, "recon", key).Return(nil).Once()
	}
	svc := service.NewExportService(storage, storageConfig(), &config.ExportConfig{}, nullLogger())

	require.NoError(t, svc.Unpublish(context.Background(), "abc"))
	storage.AssertExpectations(t)
}

func TestExportService_Unpublish_Errors(t *testing.T) {
	disabled := service.NewExportService(nil, storageConfig(), &config.ExportConfig{}, nullLogger())
	assert.NoError(t, disabled.Unpublish(context.Background(), "abc"))

	storage := new(mocks.MockObjectStorage)
	storage.On("Delete", mock.Anything, "recon", mock.Anything).Return(errors.New("access denied"))
	failing := service.NewExportService(storage, storageConfig(), &config.ExportConfig{}, nullLogger())
	err := failing.Unpublish(context.Background(), "abc")
	assert.ErrorContains(t, err, "sessions/abc/passed_invoices.csv")
	assert.ErrorContains(t, err, "access denied")
	storage.AssertNumberOfCalls(t, "Delete", 1)
}
