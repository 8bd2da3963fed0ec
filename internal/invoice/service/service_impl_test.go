package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/siel/acumulus-sync/internal/acumulus"
	"github.com/siel/acumulus-sync/internal/config"
	entrydomain "github.com/siel/acumulus-sync/internal/entry/domain"
	"github.com/siel/acumulus-sync/internal/invoice/collector"
	"github.com/siel/acumulus-sync/internal/invoice/completor"
	invoicedomain "github.com/siel/acumulus-sync/internal/invoice/domain"
	"github.com/siel/acumulus-sync/internal/providers/email"
	"github.com/siel/acumulus-sync/internal/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Mock objects

type mockAdapter struct {
	mock.Mock
}

func (m *mockAdapter) GetSource(ctx context.Context, typ source.Type, id int64) (*source.Source, error) {
	args := m.Called(ctx, typ, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*source.Source), args.Error(1)
}

type mockClient struct {
	mock.Mock
}

func (m *mockClient) AddInvoice(ctx context.Context, inv *invoicedomain.Invoice) (*invoicedomain.InvoiceAddResult, error) {
	args := m.Called(ctx, inv)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicedomain.InvoiceAddResult), args.Error(1)
}

func (m *mockClient) InvoicePDFURI(token string) string {
	return "https://api.example.com/pdf?token=" + token
}

func (m *mockClient) PackingSlipPDFURI(token string) string {
	return "https://api.example.com/packing-slip?token=" + token
}

func (m *mockClient) UpdateStock(ctx context.Context, productID int64, delta float64, description string) (*acumulus.StockResult, error) {
	args := m.Called(ctx, productID, delta, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*acumulus.StockResult), args.Error(1)
}

type mockEntries struct {
	mock.Mock
}

func (m *mockEntries) GetByInvoiceSource(ctx context.Context, src *source.Source) (*entrydomain.AcumulusEntry, error) {
	args := m.Called(ctx, src)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entrydomain.AcumulusEntry), args.Error(1)
}

func (m *mockEntries) GetBySource(ctx context.Context, typ source.Type, id int64) (*entrydomain.AcumulusEntry, error) {
	args := m.Called(ctx, typ, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entrydomain.AcumulusEntry), args.Error(1)
}

func (m *mockEntries) GetByEntryID(ctx context.Context, entryID int64) (*entrydomain.AcumulusEntry, error) {
	args := m.Called(ctx, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entrydomain.AcumulusEntry), args.Error(1)
}

func (m *mockEntries) SaveResult(ctx context.Context, src *source.Source, result *invoicedomain.InvoiceAddResult) (*entrydomain.AcumulusEntry, error) {
	args := m.Called(ctx, src, result)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entrydomain.AcumulusEntry), args.Error(1)
}

func (m *mockEntries) Delete(ctx context.Context, entry *entrydomain.AcumulusEntry) error {
	return m.Called(ctx, entry).Error(0)
}

func (m *mockEntries) DeleteForSource(ctx context.Context, typ source.Type, id int64) error {
	return m.Called(ctx, typ, id).Error(0)
}

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) Send(ctx context.Context, to []string, subject string, htmlBody string) error {
	return m.Called(ctx, to, subject, htmlBody).Error(0)
}

func (m *mockMailer) SendSyncFailure(ctx context.Context, to []string, report email.FailureReport) error {
	return m.Called(ctx, to, report).Error(0)
}

// Fixtures

func testSource() *source.Source {
	vatRate := 0.21
	return &source.Source{
		Type:          source.TypeOrder,
		ID:            1001,
		ReferenceID:   "1001",
		DateOfSale:    time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
		Currency:      "EUR",
		TotalAmount:   12.10,
		TotalVat:      2.10,
		PaymentStatus: source.PaymentPaid,
		ShopStatus:    "processing",
		Customer:      source.Customer{Email: "buyer@example.com", LastName: "Buyer"},
		InvoiceAddress: &source.Address{
			Address1: "Main Street 1", City: "Amsterdam", Country: "NL",
		},
		Items: []source.Item{
			{
				ID: 1, ProductID: 77, Description: "Widget",
				Quantity: 1, UnitPriceEx: 10, UnitPriceInc: 12.10,
				VatRate: &vatRate, VatAmount: 2.10, PricePrecision: 0.01,
			},
		},
	}
}

func acceptedRemoteResult() *invoicedomain.InvoiceAddResult {
	entryID := int64(42)
	token := "T-token"
	r := invoicedomain.NewInvoiceAddResult()
	r.Status = invoicedomain.SendStatusSuccess
	r.EntryID = &entryID
	r.Token = &token
	return r
}

func acceptedEntry() *entrydomain.AcumulusEntry {
	entryID := int64(42)
	token := "T-token"
	return &entrydomain.AcumulusEntry{
		SourceType: "order", SourceID: 1001,
		EntryID: &entryID, Token: &token,
	}
}

type testDeps struct {
	adapter *mockAdapter
	client  *mockClient
	entries *mockEntries
	mailer  *mockMailer
}

func newTestInvoiceService(settings config.InvoiceSettings) (invoicedomain.Service, *testDeps) {
	deps := &testDeps{
		adapter: &mockAdapter{},
		client:  &mockClient{},
		entries: &mockEntries{},
		mailer:  &mockMailer{},
	}
	log := zap.NewNop()
	holder := config.NewStaticInvoiceSettingsHolder(settings)
	svc := NewService(ServiceParam{
		Log:       log,
		Config:    config.Config{AdminEmail: "admin@example.com"},
		Settings:  holder,
		Adapter:   deps.adapter,
		Collector: collector.New(log),
		Completor: completor.New(log, holder),
		Client:    deps.client,
		Entries:   deps.entries,
		Mailer:    deps.mailer,
	})
	return svc, deps
}

// Tests

func TestSend_Success(t *testing.T) {
	svc, deps := newTestInvoiceService(config.DefaultInvoiceSettings())
	src := testSource()

	deps.adapter.On("GetSource", mock.Anything, source.TypeOrder, int64(1001)).Return(src, nil)
	deps.entries.On("GetByInvoiceSource", mock.Anything, src).Return(nil, nil)
	deps.client.On("AddInvoice", mock.Anything, mock.Anything).Return(acceptedRemoteResult(), nil)
	deps.entries.On("SaveResult", mock.Anything, src, mock.Anything).Return(acceptedEntry(), nil)

	result, err := svc.Send(context.Background(), source.TypeOrder, 1001, false)
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.SendStatusSuccess, result.Status)
	assert.True(t, result.Accepted())

	deps.entries.AssertCalled(t, "SaveResult", mock.Anything, src, mock.Anything)
	deps.mailer.AssertNotCalled(t, "SendSyncFailure", mock.Anything, mock.Anything, mock.Anything)
}

func TestSend_AlreadyAcceptedIsNoOp(t *testing.T) {
	svc, deps := newTestInvoiceService(config.DefaultInvoiceSettings())
	src := testSource()

	deps.adapter.On("GetSource", mock.Anything, source.TypeOrder, int64(1001)).Return(src, nil)
	deps.entries.On("GetByInvoiceSource", mock.Anything, src).Return(acceptedEntry(), nil)

	result, err := svc.Send(context.Background(), source.TypeOrder, 1001, false)
	require.NoError(t, err)

	assert.Equal(t, invoicedomain.SendStatusNotSent, result.Status)
	require.Len(t, result.Messages, 1)
	assert.Equal(t, "already_sent", result.Messages[0].Code)

	deps.client.AssertNotCalled(t, "AddInvoice", mock.Anything, mock.Anything)
	deps.entries.AssertNotCalled(t, "SaveResult", mock.Anything, mock.Anything, mock.Anything)
}

func TestSend_ForcedResendsAcceptedEntry(t *testing.T) {
	svc, deps := newTestInvoiceService(config.DefaultInvoiceSettings())
	src := testSource()

	deps.adapter.On("GetSource", mock.Anything, source.TypeOrder, int64(1001)).Return(src, nil)
	deps.entries.On("GetByInvoiceSource", mock.Anything, src).Return(acceptedEntry(), nil)
	deps.client.On("AddInvoice", mock.Anything, mock.Anything).Return(acceptedRemoteResult(), nil)
	deps.entries.On("SaveResult", mock.Anything, src, mock.Anything).Return(acceptedEntry(), nil)

	result, err := svc.Send(context.Background(), source.TypeOrder, 1001, true)
	require.NoError(t, err)
	assert.True(t, result.Accepted())

	deps.client.AssertCalled(t, "AddInvoice", mock.Anything, mock.Anything)
}

func TestSend_StaleConceptIsResent(t *testing.T) {
	svc, deps := newTestInvoiceService(config.DefaultInvoiceSettings())
	src := testSource()
	conceptID := int64(5)
	conceptEntry := &entrydomain.AcumulusEntry{
		SourceType: "order", SourceID: 1001, ConceptID: &conceptID,
	}

	deps.adapter.On("GetSource", mock.Anything, source.TypeOrder, int64(1001)).Return(src, nil)
	deps.entries.On("GetByInvoiceSource", mock.Anything, src).Return(conceptEntry, nil)
	deps.client.On("AddInvoice", mock.Anything, mock.Anything).Return(acceptedRemoteResult(), nil)
	deps.entries.On("SaveResult", mock.Anything, src, mock.Anything).Return(acceptedEntry(), nil)

	result, err := svc.Send(context.Background(), source.TypeOrder, 1001, false)
	require.NoError(t, err)
	assert.True(t, result.Accepted())
}

func TestSend_TransportFailureMailsAdminOnceAndSavesNothing(t *testing.T) {
	svc, deps := newTestInvoiceService(config.DefaultInvoiceSettings())
	src := testSource()

	deps.adapter.On("GetSource", mock.Anything, source.TypeOrder, int64(1001)).Return(src, nil)
	deps.entries.On("GetByInvoiceSource", mock.Anything, src).Return(nil, nil)
	deps.client.On("AddInvoice", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))
	deps.mailer.On("SendSyncFailure", mock.Anything, []string{"admin@example.com"}, mock.Anything).Return(nil)

	result, err := svc.Send(context.Background(), source.TypeOrder, 1001, false)
	require.NoError(t, err, "a remote failure must not surface as an error to the caller")
	assert.Equal(t, invoicedomain.SendStatusException, result.Status)

	deps.mailer.AssertNumberOfCalls(t, "SendSyncFailure", 1)
	deps.entries.AssertNotCalled(t, "SaveResult", mock.Anything, mock.Anything, mock.Anything)
}

func TestSend_RemoteErrorsMailAdminAndSaveNothing(t *testing.T) {
	svc, deps := newTestInvoiceService(config.DefaultInvoiceSettings())
	src := testSource()

	remote := invoicedomain.NewInvoiceAddResult()
	remote.AddMessage(invoicedomain.SeverityError, "400", "invalid vat number", "")

	deps.adapter.On("GetSource", mock.Anything, source.TypeOrder, int64(1001)).Return(src, nil)
	deps.entries.On("GetByInvoiceSource", mock.Anything, src).Return(nil, nil)
	deps.client.On("AddInvoice", mock.Anything, mock.Anything).Return(remote, nil)
	deps.mailer.On("SendSyncFailure", mock.Anything, []string{"admin@example.com"}, mock.Anything).Return(nil)

	result, err := svc.Send(context.Background(), source.TypeOrder, 1001, false)
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.SendStatusErrors, result.Status)

	deps.mailer.AssertNumberOfCalls(t, "SendSyncFailure", 1)
	deps.entries.AssertNotCalled(t, "SaveResult", mock.Anything, mock.Anything, mock.Anything)
}

func TestSend_SourceNotFound(t *testing.T) {
	svc, deps := newTestInvoiceService(config.DefaultInvoiceSettings())

	deps.adapter.On("GetSource", mock.Anything, source.TypeOrder, int64(1001)).Return(nil, source.ErrSourceNotFound)

	_, err := svc.Send(context.Background(), source.TypeOrder, 1001, false)
	assert.ErrorIs(t, err, source.ErrSourceNotFound)
}

func TestSend_ConceptModeRequestsDraft(t *testing.T) {
	settings := config.DefaultInvoiceSettings()
	settings.Concept = true
	svc, deps := newTestInvoiceService(settings)
	src := testSource()

	conceptID := int64(5)
	remote := invoicedomain.NewInvoiceAddResult()
	remote.Status = invoicedomain.SendStatusSuccess
	remote.ConceptID = &conceptID

	deps.adapter.On("GetSource", mock.Anything, source.TypeOrder, int64(1001)).Return(src, nil)
	deps.entries.On("GetByInvoiceSource", mock.Anything, src).Return(nil, nil)
	deps.client.On("AddInvoice", mock.Anything, mock.MatchedBy(func(inv *invoicedomain.Invoice) bool {
		return inv.Concept
	})).Return(remote, nil)
	deps.entries.On("SaveResult", mock.Anything, src, mock.Anything).Return(&entrydomain.AcumulusEntry{
		SourceType: "order", SourceID: 1001, ConceptID: &conceptID,
	}, nil)

	result, err := svc.Send(context.Background(), source.TypeOrder, 1001, false)
	require.NoError(t, err)
	require.NotNil(t, result.ConceptID)
	assert.Equal(t, int64(5), *result.ConceptID)
	assert.False(t, result.Accepted())
}

func TestHandleSourceStatusChange_NonTriggerStatusIgnored(t *testing.T) {
	svc, deps := newTestInvoiceService(config.DefaultInvoiceSettings())

	result, err := svc.HandleSourceStatusChange(context.Background(), source.TypeOrder, 1001, "pending")
	require.NoError(t, err)

	assert.Equal(t, invoicedomain.SendStatusNotSent, result.Status)
	require.Len(t, result.Messages, 1)
	assert.Equal(t, "status_not_triggering", result.Messages[0].Code)

	deps.adapter.AssertNotCalled(t, "GetSource", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleSourceStatusChange_CreditNoteSkipsTriggerCheck(t *testing.T) {
	svc, deps := newTestInvoiceService(config.DefaultInvoiceSettings())
	src := testSource()
	src.Type = source.TypeCreditNote

	deps.adapter.On("GetSource", mock.Anything, source.TypeCreditNote, int64(1001)).Return(src, nil)
	deps.entries.On("GetByInvoiceSource", mock.Anything, src).Return(nil, nil)
	deps.client.On("AddInvoice", mock.Anything, mock.Anything).Return(acceptedRemoteResult(), nil)
	deps.entries.On("SaveResult", mock.Anything, src, mock.Anything).Return(acceptedEntry(), nil)

	result, err := svc.HandleSourceStatusChange(context.Background(), source.TypeCreditNote, 1001, "anything")
	require.NoError(t, err)
	assert.True(t, result.Accepted())
}

func TestInvoicePDFURI(t *testing.T) {
	svc, deps := newTestInvoiceService(config.DefaultInvoiceSettings())

	deps.entries.On("GetBySource", mock.Anything, source.TypeOrder, int64(1001)).Return(acceptedEntry(), nil)

	uri, err := svc.InvoicePDFURI(context.Background(), source.TypeOrder, 1001)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/pdf?token=T-token", uri)
}

func TestInvoicePDFURI_NoEntry(t *testing.T) {
	svc, deps := newTestInvoiceService(config.DefaultInvoiceSettings())

	deps.entries.On("GetBySource", mock.Anything, source.TypeOrder, int64(1001)).Return(nil, nil)

	_, err := svc.InvoicePDFURI(context.Background(), source.TypeOrder, 1001)
	assert.ErrorIs(t, err, entrydomain.ErrEntryNotFound)
}

func TestInvoicePDFURI_ConceptHasNoToken(t *testing.T) {
	svc, deps := newTestInvoiceService(config.DefaultInvoiceSettings())
	conceptID := int64(5)
	conceptEntry := &entrydomain.AcumulusEntry{
		SourceType: "order", SourceID: 1001, ConceptID: &conceptID,
	}

	deps.entries.On("GetBySource", mock.Anything, source.TypeOrder, int64(1001)).Return(conceptEntry, nil)

	_, err := svc.InvoicePDFURI(context.Background(), source.TypeOrder, 1001)
	assert.ErrorIs(t, err, invoicedomain.ErrNoToken)
}
