package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tracc-api/internal/cache"
	"tracc-api/internal/model"
	"tracc-api/internal/repository"
	"tracc-api/internal/stock"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time           { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type fixture struct {
	store    repository.Store
	clock    *fakeClock
	silos    *SiloService
	inbound  *InboundService
	outbound *OutboundService
	batch    *BatchService
	reports  *ReportService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithStore(t, repository.NewMemoryStore())
}

func newFixtureWithStore(t *testing.T, store repository.Store) *fixture {
	t.Helper()

	mem := cache.NewMemoryCache(time.Minute)
	t.Cleanup(func() { _ = mem.Close() })

	clk := &fakeClock{t: time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)}
	log := zap.NewNop()
	rules := stock.DefaultRules()
	snapshots := cache.NewSnapshotCache(mem, time.Minute, log)

	silos := NewSiloService(store, snapshots, clk.Now, log)
	return &fixture{
		store:    store,
		clock:    clk,
		silos:    silos,
		inbound:  NewInboundService(store, silos, rules, clk.Now, log),
		outbound: NewOutboundService(store, silos, rules, clk.Now, log),
		batch:    NewBatchService(store, silos, rules, clk.Now, log),
		reports:  NewReportService(silos, repository.NewMemoryReportRepository(10), clk.Now, log),
	}
}

func kg(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertKg(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.True(t, kg(want).Equal(got), append([]interface{}{"want %s kg, got %s kg", want, got}, msgAndArgs...)...)
}

func (f *fixture) silo(t *testing.T, id, name, capacity string) {
	t.Helper()
	_, err := f.silos.CreateSilo(context.Background(), model.Silo{ID: id, Name: name, CapacityKg: kg(capacity)})
	require.NoError(t, err)
}

func (f *fixture) receive(t *testing.T, siloID, qty string) model.InboundRecord {
	t.Helper()
	rec, err := f.inbound.Create(context.Background(), model.InboundRecord{
		SiloID:      siloID,
		QuantityKg:  kg(qty),
		Product:     "Durum wheat",
		LotSupplier: "SUP-" + qty,
		LotTF:       "TF-" + qty,
	})
	require.NoError(t, err)
	f.clock.Advance(time.Hour)
	return *rec
}

func TestOutboundService_CreateConsumesOldestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.silo(t, "silo-1", "Silo 1", "1000")
	a := f.receive(t, "silo-1", "100")
	b := f.receive(t, "silo-1", "200")

	rec, err := f.outbound.Create(ctx, CreateOutboundRequest{SiloID: "silo-1", QuantityKg: kg("150"), OperatorName: " Mario "})
	require.NoError(t, err)

	assert.Equal(t, "Mario", rec.OperatorName)
	require.Len(t, rec.Items, 2)
	assert.Equal(t, a.ID, rec.Items[0].InboundID)
	assertKg(t, "100", rec.Items[0].QuantityKg)
	assert.Equal(t, b.ID, rec.Items[1].InboundID)
	assertKg(t, "50", rec.Items[1].QuantityKg)
	assert.Empty(t, rec.BatchID)

	snap, err := f.silos.GetSnapshot(ctx, "silo-1")
	require.NoError(t, err)
	assertKg(t, "150", snap.CurrentLevel)
	require.Len(t, snap.AvailableItems, 1)
	assert.Equal(t, b.ID, snap.AvailableItems[0].InboundID)
	assertKg(t, "150", snap.AvailableItems[0].AvailableQuantity)
}

func TestInboundService_CapacityExceeded(t *testing.T) {
	f := newFixture(t)
	f.silo(t, "silo-1", "Silo 1", "500")
	f.receive(t, "silo-1", "400")

	_, err := f.inbound.Create(context.Background(), model.InboundRecord{
		SiloID: "silo-1", QuantityKg: kg("150"), Product: "Durum wheat",
	})
	require.Error(t, err)
	assert.True(t, stock.IsBusiness(err))
	assert.Contains(t, err.Error(), "capacity exceeded")

	snap, err := f.silos.GetSnapshot(context.Background(), "silo-1")
	require.NoError(t, err)
	assertKg(t, "400", snap.CurrentLevel)
}

func TestOutboundService_InsufficientStock(t *testing.T) {
	f := newFixture(t)
	f.silo(t, "silo-1", "Silo 1", "500")
	f.receive(t, "silo-1", "100")

	_, err := f.outbound.Create(context.Background(), CreateOutboundRequest{SiloID: "silo-1", QuantityKg: kg("150"), OperatorName: "Mario"})
	require.Error(t, err)
	assert.True(t, stock.IsBusiness(err))
	assert.Contains(t, err.Error(), "insufficient stock")

	recs, err := f.outbound.List(context.Background(), model.LedgerFilter{})
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestOutboundService_RequiresOperator(t *testing.T) {
	f := newFixture(t)
	f.silo(t, "silo-1", "Silo 1", "500")
	f.receive(t, "silo-1", "100")

	_, err := f.outbound.Create(context.Background(), CreateOutboundRequest{SiloID: "silo-1", QuantityKg: kg("10"), OperatorName: "  "})
	assert.True(t, stock.IsValidation(err))
}

func TestOutboundService_CalculateFIFOWithdrawalWritesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.silo(t, "silo-1", "Silo 1", "500")
	f.receive(t, "silo-1", "100")

	plan, err := f.outbound.CalculateFIFOWithdrawal(ctx, "silo-1", kg("60"))
	require.NoError(t, err)
	require.Len(t, plan, 1)
	assertKg(t, "60", plan[0].QuantityKg)

	_, err = f.outbound.CalculateFIFOWithdrawal(ctx, "silo-1", kg("101"))
	assert.True(t, stock.IsAllocation(err))

	snap, err := f.silos.GetSnapshot(ctx, "silo-1")
	require.NoError(t, err)
	assertKg(t, "100", snap.CurrentLevel)
}

func TestOutboundService_UpdateReplansWithOwnQuantityRestored(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.silo(t, "silo-1", "Silo 1", "1000")
	a := f.receive(t, "silo-1", "100")
	b := f.receive(t, "silo-1", "100")

	rec, err := f.outbound.Create(ctx, CreateOutboundRequest{SiloID: "silo-1", QuantityKg: kg("150"), OperatorName: "Mario"})
	require.NoError(t, err)

	qty := kg("200")
	updated, err := f.outbound.Update(ctx, rec.ID, model.OutboundPatch{QuantityKg: &qty})
	require.NoError(t, err)
	assertKg(t, "200", updated.QuantityKg)
	require.Len(t, updated.Items, 2)
	assert.Equal(t, a.ID, updated.Items[0].InboundID)
	assert.Equal(t, b.ID, updated.Items[1].InboundID)
	assertKg(t, "100", updated.Items[1].QuantityKg)

	snap, err := f.silos.GetSnapshot(ctx, "silo-1")
	require.NoError(t, err)
	assertKg(t, "0", snap.CurrentLevel)

	tooMuch := kg("201")
	_, err = f.outbound.Update(ctx, rec.ID, model.OutboundPatch{QuantityKg: &tooMuch})
	assert.True(t, stock.IsBusiness(err))
}

func TestService_EditWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.silo(t, "silo-1", "Silo 1", "1000")
	lot := f.receive(t, "silo-1", "100")
	out, err := f.outbound.Create(ctx, CreateOutboundRequest{SiloID: "silo-1", QuantityKg: kg("10"), OperatorName: "Mario"})
	require.NoError(t, err)

	f.clock.Advance(23 * time.Hour)
	name := "Luigi"
	_, err = f.outbound.Update(ctx, out.ID, model.OutboundPatch{OperatorName: &name})
	require.NoError(t, err)

	f.clock.Advance(2 * time.Hour)
	_, err = f.outbound.Update(ctx, out.ID, model.OutboundPatch{OperatorName: &name})
	assert.True(t, stock.IsBusiness(err))
	assert.True(t, stock.IsBusiness(f.outbound.Delete(ctx, out.ID)))

	product := "Soft wheat"
	_, err = f.inbound.Update(ctx, lot.ID, model.InboundPatch{Product: &product})
	assert.True(t, stock.IsBusiness(err))
}

func TestInboundService_ConsumedLotGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.silo(t, "silo-1", "Silo 1", "1000")
	f.silo(t, "silo-2", "Silo 2", "1000")
	lot := f.receive(t, "silo-1", "100")
	out, err := f.outbound.Create(ctx, CreateOutboundRequest{SiloID: "silo-1", QuantityKg: kg("40"), OperatorName: "Mario"})
	require.NoError(t, err)

	err = f.inbound.Delete(ctx, lot.ID)
	require.Error(t, err)
	assert.True(t, stock.IsBusiness(err))
	assert.Contains(t, err.Error(), out.ID)

	other := "silo-2"
	_, err = f.inbound.Update(ctx, lot.ID, model.InboundPatch{SiloID: &other})
	assert.True(t, stock.IsBusiness(err))

	shrink := kg("30")
	_, err = f.inbound.Update(ctx, lot.ID, model.InboundPatch{QuantityKg: &shrink})
	assert.True(t, stock.IsBusiness(err))

	ok := kg("40")
	updated, err := f.inbound.Update(ctx, lot.ID, model.InboundPatch{QuantityKg: &ok})
	require.NoError(t, err)
	assertKg(t, "40", updated.QuantityKg)

	require.NoError(t, f.outbound.Delete(ctx, out.ID))
	require.NoError(t, f.inbound.Delete(ctx, lot.ID))
}

func TestInboundService_UpdateCapacityDiscountsOwnQuantity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.silo(t, "silo-1", "Silo 1", "500")
	lot := f.receive(t, "silo-1", "400")

	grow := kg("500")
	_, err := f.inbound.Update(ctx, lot.ID, model.InboundPatch{QuantityKg: &grow})
	require.NoError(t, err)

	over := kg("500.1")
	_, err = f.inbound.Update(ctx, lot.ID, model.InboundPatch{QuantityKg: &over})
	assert.True(t, stock.IsBusiness(err))
}

func TestInboundService_MaterialAllowList(t *testing.T) {
	f := newFixture(t)
	_, err := f.silos.CreateSilo(context.Background(), model.Silo{
		ID: "silo-1", Name: "Silo 1", CapacityKg: kg("500"), AllowedMaterialIDs: []string{"mat-durum"},
	})
	require.NoError(t, err)

	_, err = f.inbound.Create(context.Background(), model.InboundRecord{
		SiloID: "silo-1", QuantityKg: kg("10"), Product: "Barley", MaterialID: "mat-barley",
	})
	assert.True(t, stock.IsBusiness(err))

	_, err = f.inbound.Create(context.Background(), model.InboundRecord{
		SiloID: "silo-1", QuantityKg: kg("10"), Product: "Durum wheat", MaterialID: "mat-durum",
	})
	assert.NoError(t, err)
}

func TestBatchService_MultiSiloBlend(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.silo(t, "silo-1", "Silo 1", "1000")
	f.silo(t, "silo-2", "Silo 2", "1000")
	x := f.receive(t, "silo-1", "80")
	y := f.receive(t, "silo-2", "30")

	result, err := f.batch.Withdraw(ctx, "Mario", []model.LotSelection{
		{SiloID: "silo-1", InboundID: x.ID, WithdrawQuantity: kg("50")},
		{SiloID: "silo-2", InboundID: y.ID, WithdrawQuantity: kg("30")},
	})
	require.NoError(t, err)

	require.NotEmpty(t, result.BatchID)
	require.Len(t, result.Records, 2)
	for _, rec := range result.Records {
		assert.Equal(t, result.BatchID, rec.BatchID)
		assert.Equal(t, "Mario", rec.OperatorName)
	}
	assert.Equal(t, "silo-1", result.Records[0].SiloID)
	assertKg(t, "50", result.Records[0].QuantityKg)
	assertKg(t, "30", result.Records[1].QuantityKg)

	snap1, err := f.silos.GetSnapshot(ctx, "silo-1")
	require.NoError(t, err)
	item, ok := snap1.Item(x.ID)
	require.True(t, ok)
	assertKg(t, "30", item.AvailableQuantity)

	snap2, err := f.silos.GetSnapshot(ctx, "silo-2")
	require.NoError(t, err)
	assert.Empty(t, snap2.AvailableItems)
	assertKg(t, "0", snap2.CurrentLevel)
}

func TestBatchService_SingleSiloHasNoBatchID(t *testing.T) {
	f := newFixture(t)
	f.silo(t, "silo-1", "Silo 1", "1000")
	a := f.receive(t, "silo-1", "80")
	b := f.receive(t, "silo-1", "20")

	result, err := f.batch.Withdraw(context.Background(), "Mario", []model.LotSelection{
		{SiloID: "silo-1", InboundID: b.ID, WithdrawQuantity: kg("20")},
		{SiloID: "silo-1", InboundID: a.ID, WithdrawQuantity: kg("5")},
	})
	require.NoError(t, err)
	assert.Empty(t, result.BatchID)
	require.Len(t, result.Records, 1)
	require.Len(t, result.Records[0].Items, 2)
	assert.Equal(t, b.ID, result.Records[0].Items[0].InboundID)
	assertKg(t, "25", result.Records[0].QuantityKg)
}

func TestBatchService_ValidatesEverySiloBeforeWriting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.silo(t, "silo-1", "Silo 1", "1000")
	f.silo(t, "silo-2", "Silo 2", "1000")
	x := f.receive(t, "silo-1", "80")
	y := f.receive(t, "silo-2", "30")

	tests := []struct {
		name       string
		operator   string
		selections []model.LotSelection
		check      func(error) bool
	}{
		{"no operator", "", []model.LotSelection{{SiloID: "silo-1", InboundID: x.ID, WithdrawQuantity: kg("1")}}, stock.IsValidation},
		{"no selections", "Mario", nil, stock.IsValidation},
		{"over lot", "Mario", []model.LotSelection{
			{SiloID: "silo-1", InboundID: x.ID, WithdrawQuantity: kg("10")},
			{SiloID: "silo-2", InboundID: y.ID, WithdrawQuantity: kg("31")},
		}, stock.IsBusiness},
		{"lot in other silo", "Mario", []model.LotSelection{
			{SiloID: "silo-1", InboundID: y.ID, WithdrawQuantity: kg("1")},
		}, stock.IsBusiness},
		{"unknown silo", "Mario", []model.LotSelection{
			{SiloID: "silo-9", InboundID: x.ID, WithdrawQuantity: kg("1")},
		}, stock.IsNotFound},
		{"items finer than stored scale", "Mario", []model.LotSelection{
			{SiloID: "silo-1", InboundID: x.ID, WithdrawQuantity: kg("0.0617")},
			{SiloID: "silo-1", InboundID: x.ID, WithdrawQuantity: kg("0.0617")},
		}, stock.IsValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.batch.Withdraw(ctx, tt.operator, tt.selections)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error kind: %v", err)
		})
	}

	recs, err := f.store.ListOutbound(ctx, model.LedgerFilter{})
	require.NoError(t, err)
	assert.Empty(t, recs)
}

// failingStore fails the n-th outbound insert and optionally every delete.
type failingStore struct {
	repository.Store
	failInsertAt int
	inserts      int
	failDeletes  bool
}

func (s *failingStore) InsertOutbound(ctx context.Context, rec model.OutboundRecord) error {
	s.inserts++
	if s.inserts == s.failInsertAt {
		return errors.New("connection reset")
	}
	return s.Store.InsertOutbound(ctx, rec)
}

func (s *failingStore) DeleteOutbound(ctx context.Context, id string) error {
	if s.failDeletes {
		return errors.New("connection refused")
	}
	return s.Store.DeleteOutbound(ctx, id)
}

func TestBatchService_CompensatesPartialWrite(t *testing.T) {
	for _, failDeletes := range []bool{false, true} {
		store := &failingStore{Store: repository.NewMemoryStore(), failInsertAt: 2, failDeletes: failDeletes}
		f := newFixtureWithStore(t, store)
		ctx := context.Background()
		f.silo(t, "silo-1", "Silo 1", "1000")
		f.silo(t, "silo-2", "Silo 2", "1000")
		x := f.receive(t, "silo-1", "80")
		y := f.receive(t, "silo-2", "30")

		_, err := f.batch.Withdraw(ctx, "Mario", []model.LotSelection{
			{SiloID: "silo-1", InboundID: x.ID, WithdrawQuantity: kg("50")},
			{SiloID: "silo-2", InboundID: y.ID, WithdrawQuantity: kg("30")},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection reset")

		recs, err2 := store.Store.ListOutbound(ctx, model.LedgerFilter{})
		require.NoError(t, err2)
		if failDeletes {
			assert.Contains(t, err.Error(), "compensation")
			assert.Len(t, recs, 1)
		} else {
			assert.NotContains(t, err.Error(), "compensation")
			assert.Empty(t, recs)
		}
	}
}

// interleavingStore runs afterListOutbound once, right after the next
// outbound ledger read, to interleave a write with an in-flight snapshot.
type interleavingStore struct {
	repository.Store
	afterListOutbound func()
}

func (s *interleavingStore) ListOutbound(ctx context.Context, filter model.LedgerFilter) ([]model.OutboundRecord, error) {
	recs, err := s.Store.ListOutbound(ctx, filter)
	if hook := s.afterListOutbound; hook != nil {
		s.afterListOutbound = nil
		hook()
	}
	return recs, err
}

func TestSiloService_SnapshotFillRacingWithWrite(t *testing.T) {
	store := &interleavingStore{Store: repository.NewMemoryStore()}
	f := newFixtureWithStore(t, store)
	ctx := context.Background()
	f.silo(t, "silo-1", "Silo 1", "1000")
	f.receive(t, "silo-1", "100")

	store.afterListOutbound = func() {
		_, err := f.outbound.Create(ctx, CreateOutboundRequest{SiloID: "silo-1", QuantityKg: kg("100"), OperatorName: "Mario"})
		require.NoError(t, err)
	}

	inFlight, err := f.silos.GetSnapshot(ctx, "silo-1")
	require.NoError(t, err)
	assertKg(t, "100", inFlight.CurrentLevel, "read started before the withdrawal")

	snap, err := f.silos.GetSnapshot(ctx, "silo-1")
	require.NoError(t, err)
	assertKg(t, "0", snap.CurrentLevel)

	_, err = f.outbound.Create(ctx, CreateOutboundRequest{SiloID: "silo-1", QuantityKg: kg("100"), OperatorName: "Mario"})
	require.Error(t, err)
	assert.True(t, stock.IsBusiness(err))
}

func TestService_WritesIgnoreStaleCachedSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.silo(t, "silo-1", "Silo 1", "500")
	f.receive(t, "silo-1", "100")

	stale, err := f.silos.GetSnapshot(ctx, "silo-1")
	require.NoError(t, err)

	// Another instance sharing the cache withdraws and fills; this one still
	// holds the old entry.
	_, err = f.outbound.Create(ctx, CreateOutboundRequest{SiloID: "silo-1", QuantityKg: kg("100"), OperatorName: "Mario"})
	require.NoError(t, err)
	f.silos.snapshots.Put(ctx, *stale)

	_, err = f.outbound.CalculateFIFOWithdrawal(ctx, "silo-1", kg("50"))
	assert.Equal(t, stock.KindAllocation, stock.KindOf(err))

	_, err = f.outbound.Create(ctx, CreateOutboundRequest{SiloID: "silo-1", QuantityKg: kg("50"), OperatorName: "Mario"})
	require.Error(t, err)
	assert.True(t, stock.IsBusiness(err))

	f.silos.snapshots.Put(ctx, model.SiloSnapshot{Silo: stale.Silo, CurrentLevel: kg("0")})
	_, err = f.inbound.Create(ctx, model.InboundRecord{SiloID: "silo-1", QuantityKg: kg("450"), Product: "Durum wheat", LotSupplier: "SUP-450", LotTF: "TF-450"})
	require.NoError(t, err, "capacity is checked against the ledger, not the cached level")

	_, err = f.inbound.Create(ctx, model.InboundRecord{SiloID: "silo-1", QuantityKg: kg("100"), Product: "Durum wheat", LotSupplier: "SUP-100", LotTF: "TF-100"})
	require.Error(t, err)
	assert.True(t, stock.IsBusiness(err))
}

func TestSiloService_DeleteRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.silo(t, "silo-1", "Silo 1", "1000")
	f.silo(t, "silo-2", "Silo 2", "1000")
	f.receive(t, "silo-1", "100")

	require.NoError(t, f.silos.DeleteSilo(ctx, "silo-2"))
	_, err := f.silos.GetSnapshot(ctx, "silo-2")
	assert.True(t, stock.IsNotFound(err))

	err = f.silos.DeleteSilo(ctx, "silo-1")
	assert.True(t, stock.IsBusiness(err))
	assert.Contains(t, err.Error(), "still holds")

	_, err = f.outbound.Create(ctx, CreateOutboundRequest{SiloID: "silo-1", QuantityKg: kg("100"), OperatorName: "Mario"})
	require.NoError(t, err)
	err = f.silos.DeleteSilo(ctx, "silo-1")
	assert.True(t, stock.IsBusiness(err))
	assert.Contains(t, err.Error(), "ledger activity")

	f.clock.Advance(SiloDeleteQuietPeriod + time.Hour)
	assert.NoError(t, f.silos.DeleteSilo(ctx, "silo-1"))
}

func TestSiloService_UpdateCapacityBelowLevel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.silo(t, "silo-1", "Silo 1", "1000")
	f.receive(t, "silo-1", "400")

	low := kg("300")
	_, err := f.silos.UpdateSilo(ctx, "silo-1", model.SiloPatch{CapacityKg: &low})
	assert.True(t, stock.IsBusiness(err))

	high := kg("800")
	silo, err := f.silos.UpdateSilo(ctx, "silo-1", model.SiloPatch{CapacityKg: &high})
	require.NoError(t, err)
	assertKg(t, "800", silo.CapacityKg)

	snap, err := f.silos.GetSnapshot(ctx, "silo-1")
	require.NoError(t, err)
	assertKg(t, "50", snap.UtilizationPercentage)
}

func TestSiloService_PointInTimeSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.silo(t, "silo-1", "Silo 1", "1000")
	before := f.clock.Now()
	f.receive(t, "silo-1", "100")

	snap, err := f.silos.GetSnapshotAt(ctx, "silo-1", before.Add(-time.Minute))
	require.NoError(t, err)
	assertKg(t, "0", snap.CurrentLevel)

	snap, err = f.silos.GetSnapshotAt(ctx, "silo-1", f.clock.Now())
	require.NoError(t, err)
	assertKg(t, "100", snap.CurrentLevel)
}

func TestReportService_GenerateAndArchive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.silo(t, "silo-1", "Silo 1", "1000")
	f.silo(t, "silo-2", "Silo 2", "500")
	f.receive(t, "silo-1", "250")
	f.receive(t, "silo-2", "100")

	report, err := f.reports.GenerateAndArchive(ctx)
	require.NoError(t, err)
	require.Len(t, report.Silos, 2)
	assert.Equal(t, "Silo 1", report.Silos[0].SiloName)
	assert.Equal(t, "25.00", report.Silos[0].Utilization)
	assert.Equal(t, "350", report.TotalLevelKg)
	assert.Equal(t, "1500", report.TotalCapacityKg)
	assert.Empty(t, report.Warnings)

	reports, total, err := f.reports.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, reports, 1)
	assert.Equal(t, report.ID, reports[0].ID)
}

func TestReportScheduler_RunNow(t *testing.T) {
	f := newFixture(t)
	f.silo(t, "silo-1", "Silo 1", "1000")

	sched := NewReportScheduler(f.reports, SchedulerConfig{}, zap.NewNop())
	require.NoError(t, sched.Start())
	require.NoError(t, sched.Start())
	defer sched.Stop()

	report, err := sched.RunNow(context.Background())
	require.NoError(t, err)
	assert.Len(t, report.Silos, 1)

	bad := NewReportScheduler(f.reports, SchedulerConfig{Schedule: "not a schedule"}, nil)
	assert.Error(t, bad.Start())
}
