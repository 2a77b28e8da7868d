package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"invoicerecon/internal/cache"
	"invoicerecon/internal/domain"
	"invoicerecon/internal/extraction"
	"invoicerecon/internal/port"
	"invoicerecon/internal/reconcile"
	"invoicerecon/internal/service"
	"invoicerecon/mocks"
)

const passingPayload = "```json\n" + `{
  "Invoice Details": {"Invoice Number": "INV-118", "Invoice Value": "118.00", "Taxable Value": "100.00"},
  "Line Items": [{"Item Name": "Widget", "Taxable Value": "100.00", "Final Amount": "118.00"}]
}` + "\n```"

const mismatchPayload = `{
  "Invoice Details": {"Invoice Number": "INV-9", "Invoice Value": "500.00", "Taxable Value": "100.00"},
  "Line Items": [{"Taxable Value": "100.00", "Final Amount": "118.00"}]
}`

func nullLogger() logrus.FieldLogger {
	l, _ := logtest.NewNullLogger()
	return l
}

func pdfDoc(name string) domain.SourceDocument {
	return domain.SourceDocument{Name: name, ContentType: "application/pdf", Bytes: []byte("%PDF-1.4 " + name)}
}

func raw(text string) *port.ParseOutput {
	return &port.ParseOutput{RawText: text, ModelUsed: "test-model"}
}

func newBatch(t *testing.T, p port.DocumentParser) service.BatchService {
	t.Helper()
	engine, err := reconcile.NewEngine(reconcile.Config{Mode: reconcile.ModeBasic})
	require.NoError(t, err)
	return service.NewBatchService(p, extraction.NewNormalizer(), engine, nullLogger())
}

func byName(name string) interface{} {
	return mock.MatchedBy(func(in port.ParseInput) bool { return in.DocumentName == name })
}

func TestBatchService_Process_Outcomes(t *testing.T) {
	p := new(mocks.MockDocumentParser)
	p.On("Parse", mock.Anything, byName("ok.pdf")).Return(raw(passingPayload), nil)
	p.On("Parse", mock.Anything, byName("off.pdf")).Return(raw(mismatchPayload), nil)
	p.On("Parse", mock.Anything, byName("prose.pdf")).Return(raw("not json"), nil)
	p.On("Parse", mock.Anything, byName("list.pdf")).Return(raw(`[1, 2]`), nil)
	p.On("Parse", mock.Anything, byName("down.pdf")).Return(nil, errors.New("503 from provider"))

	docs := []domain.SourceDocument{pdfDoc("ok.pdf"), pdfDoc("off.pdf"), pdfDoc("prose.pdf"), pdfDoc("list.pdf"), pdfDoc("down.pdf")}

	var progress []int
	summary, err := newBatch(t, p).Process(context.Background(), cache.NewResultCache(), docs,
		func(processed, total int, _ string) {
			assert.Equal(t, 5, total)
			progress = append(progress, processed)
		})

	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, progress)
	assert.Equal(t, 5, summary.Total)
	assert.Equal(t, 5, summary.Processed)
	assert.Equal(t, 1, summary.Passed)
	assert.Equal(t, 4, summary.Failed)
	require.Len(t, summary.PassedRecords, 1)
	assert.Equal(t, "INV-118", summary.PassedRecords[0].InvoiceNumber)

	reasons := map[string]domain.FailureReason{}
	for _, o := range summary.Outcomes {
		reasons[o.Document] = o.Reason
	}
	assert.Equal(t, domain.FailureReasonNone, reasons["ok.pdf"])
	assert.Equal(t, domain.FailureReasonToleranceExceeded, reasons["off.pdf"])
	assert.Equal(t, domain.FailureReasonParseError, reasons["prose.pdf"])
	assert.Equal(t, domain.FailureReasonStructureError, reasons["list.pdf"])
	assert.Equal(t, domain.FailureReasonExternalService, reasons["down.pdf"])

	require.Len(t, summary.FailedDocuments, 4)
	assert.Equal(t, []byte("%PDF-1.4 off.pdf"), summary.FailedDocuments[0].Bytes)
	p.AssertExpectations(t)
}

func TestBatchService_Process_EmptyExtraction(t *testing.T) {
	p := new(mocks.MockDocumentParser)
	p.On("Parse", mock.Anything, byName("blank.pdf")).Return(raw(" \n\t"), nil)
	p.On("Parse", mock.Anything, byName("nothing.pdf")).Return(nil, nil)
	p.On("Parse", mock.Anything, byName("ok.pdf")).Return(raw(passingPayload), nil)

	docs := []domain.SourceDocument{pdfDoc("blank.pdf"), pdfDoc("nothing.pdf"), pdfDoc("ok.pdf")}
	summary, err := newBatch(t, p).Process(context.Background(), cache.NewResultCache(), docs, nil)

	require.NoError(t, err)
	assert.Equal(t, 3, summary.Processed)
	assert.Equal(t, 1, summary.Passed)
	require.Len(t, summary.Outcomes, 3)
	for _, o := range summary.Outcomes[:2] {
		assert.Equal(t, domain.FailureReasonExternalService, o.Reason, o.Document)
		assert.Contains(t, o.Error, "empty extraction")
	}
	require.Len(t, summary.FailedDocuments, 2)
	assert.Equal(t, "nothing.pdf", summary.FailedDocuments[1].Name)
}

func TestBatchService_Process_IdempotentWithinSession(t *testing.T) {
	p := new(mocks.MockDocumentParser)
	p.On("Parse", mock.Anything, byName("a.pdf")).Return(raw(passingPayload), nil).Once()

	batch := newBatch(t, p)
	results := cache.NewResultCache()

	first, err := batch.Process(context.Background(), results, []domain.SourceDocument{pdfDoc("a.pdf")}, nil)
	require.NoError(t, err)
	second, err := batch.Process(context.Background(), results, []domain.SourceDocument{pdfDoc("a.pdf")}, nil)
	require.NoError(t, err)

	p.AssertNumberOfCalls(t, "Parse", 1)
	assert.Equal(t, first.PassedRecords, second.PassedRecords)
	assert.False(t, first.Outcomes[0].Cached)
	assert.True(t, second.Outcomes[0].Cached)
	assert.Equal(t, 1, results.Len())
}

func TestBatchService_Process_FailuresAreCachedToo(t *testing.T) {
	p := new(mocks.MockDocumentParser)
	p.On("Parse", mock.Anything, mock.Anything).Return(nil, errors.New("boom")).Once()

	batch := newBatch(t, p)
	results := cache.NewResultCache()
	docs := []domain.SourceDocument{pdfDoc("x.pdf")}

	_, err := batch.Process(context.Background(), results, docs, nil)
	require.NoError(t, err)
	summary, err := batch.Process(context.Background(), results, docs, nil)
	require.NoError(t, err)

	p.AssertNumberOfCalls(t, "Parse", 1)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, domain.FailureReasonExternalService, summary.Outcomes[0].Reason)
	assert.Contains(t, summary.Outcomes[0].Error, domain.ErrExternalService.Error())
	assert.True(t, summary.Outcomes[0].Cached)
}

func TestBatchService_Process_DuplicateNamesCountedOnce(t *testing.T) {
	p := new(mocks.MockDocumentParser)
	p.On("Parse", mock.Anything, byName("dup.pdf")).Return(raw(passingPayload), nil).Once()

	summary, err := newBatch(t, p).Process(context.Background(), cache.NewResultCache(),
		[]domain.SourceDocument{pdfDoc("dup.pdf"), pdfDoc("dup.pdf")}, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, 1, summary.Processed)
	assert.Len(t, summary.PassedRecords, 1)
	p.AssertNumberOfCalls(t, "Parse", 1)
}

func TestBatchService_Process_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	p := new(mocks.MockDocumentParser)
	p.On("Parse", mock.Anything, byName("first.pdf")).Return(raw(passingPayload), nil)
	p.On("Parse", mock.Anything, byName("second.pdf")).
		Run(func(mock.Arguments) { cancel() }).
		Return(nil, context.Canceled)

	results := cache.NewResultCache()
	summary, err := newBatch(t, p).Process(ctx, results,
		[]domain.SourceDocument{pdfDoc("first.pdf"), pdfDoc("second.pdf"), pdfDoc("third.pdf")}, nil)

	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, summary)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 1, results.Len(), "interrupted documents are not cached")
	p.AssertNotCalled(t, "Parse", mock.Anything, byName("third.pdf"))
}

func TestBatchService_Reconcile(t *testing.T) {
	batch := newBatch(t, new(mocks.MockDocumentParser))
	src := &domain.SourceDocument{Name: "saved.json"}

	r := batch.Reconcile(src, passingPayload)
	assert.True(t, r.IsPassed())
	assert.Len(t, r.Checks, 2)

	r = batch.Reconcile(src, `{"Invoice Details": {"Invoice Value": "N/A"}, "Line Items": []}`)
	assert.False(t, r.IsPassed())
	assert.Equal(t, []string{"header.invoice_value"}, r.CoercionFailures)
	assert.Same(t, src, r.Source)

	assert.Equal(t, reconcile.ModeBasic, batch.Engine().Mode())
}
