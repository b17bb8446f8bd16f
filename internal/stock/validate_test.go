package stock

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracc-api/internal/model"
)

func TestCheckQuantity(t *testing.T) {
	rules := DefaultRules()

	for _, qty := range []string{"0.1", "1", "99999.9", "100000"} {
		assert.NoError(t, rules.CheckQuantity("quantity_kg", kg(qty)), qty)
	}
	for _, qty := range []string{"0", "0.09", "-1", "100000.1", "0.1234", "12.0005"} {
		err := rules.CheckQuantity("quantity_kg", kg(qty))
		assert.True(t, IsValidation(err), qty)
	}
	assert.NoError(t, rules.CheckQuantity("quantity_kg", kg("0.1230")), "trailing zeros keep the stored scale")
}

func TestCheckPercentage(t *testing.T) {
	assert.NoError(t, CheckPercentage("proteins", nil))

	for _, v := range []string{"0", "13.2", "100"} {
		d := kg(v)
		assert.NoError(t, CheckPercentage("proteins", &d))
	}
	for _, v := range []string{"-0.1", "100.01", "13.2345"} {
		d := kg(v)
		err := CheckPercentage("humidity", &d)
		require.Error(t, err)
		var serr *Error
		require.True(t, errors.As(err, &serr))
		assert.Equal(t, "humidity", serr.Fields[0].Field)
	}
}

func TestCheckInbound(t *testing.T) {
	rules := DefaultRules()
	rec := inbound("A", "100", 1)
	assert.NoError(t, rules.CheckInbound(rec))

	missingSilo := rec
	missingSilo.SiloID = ""
	assert.True(t, IsValidation(rules.CheckInbound(missingSilo)))

	missingProduct := rec
	missingProduct.Product = ""
	assert.True(t, IsValidation(rules.CheckInbound(missingProduct)))

	humid := rec
	h := kg("120")
	humid.Humidity = &h
	assert.True(t, IsValidation(rules.CheckInbound(humid)))
}

func TestCheckCapacity(t *testing.T) {
	silo := testSilo("500")

	assert.NoError(t, CheckCapacity(silo, kg("400"), kg("100")))

	err := CheckCapacity(silo, kg("400"), kg("150"))
	require.Error(t, err)
	assert.True(t, IsBusiness(err))
	assert.Contains(t, err.Error(), "Silo 1")
	assert.Contains(t, err.Error(), "150")
	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, err.Error(), "400")
}

func TestCheckSufficiency(t *testing.T) {
	silo := testSilo("500")

	assert.NoError(t, CheckSufficiency(silo, kg("50"), kg("50")))

	err := CheckSufficiency(silo, kg("50"), kg("80"))
	assert.True(t, IsBusiness(err))
	assert.Contains(t, err.Error(), "insufficient stock")
}

func TestCheckEditWindow(t *testing.T) {
	rules := DefaultRules()
	created := at(0)

	assert.NoError(t, rules.CheckEditWindow("inbound", "A", created, created.Add(23*time.Hour)))
	assert.NoError(t, rules.CheckEditWindow("inbound", "A", created, created.Add(24*time.Hour)))
	assert.True(t, IsBusiness(rules.CheckEditWindow("inbound", "A", created, created.Add(24*time.Hour+time.Second))))
}

func TestCheckNotConsumed(t *testing.T) {
	out := outbound("O1", "10", 2)
	out.Items = []model.OutboundItem{{InboundID: "A", QuantityKg: kg("10")}}

	assert.NoError(t, CheckNotConsumed("B", []model.OutboundRecord{out}))
	err := CheckNotConsumed("A", []model.OutboundRecord{out})
	assert.True(t, IsBusiness(err))
	assert.Contains(t, err.Error(), "O1")
}

func TestCheckMaterialAllowed(t *testing.T) {
	silo := testSilo("500")
	assert.NoError(t, CheckMaterialAllowed(silo, "durum"))

	silo.AllowedMaterialIDs = []string{"soft-wheat"}
	assert.NoError(t, CheckMaterialAllowed(silo, "soft-wheat"))
	assert.True(t, IsBusiness(CheckMaterialAllowed(silo, "durum")))
}

func TestCheckSilo(t *testing.T) {
	assert.NoError(t, CheckSilo(testSilo("1")))
	assert.True(t, IsValidation(CheckSilo(model.Silo{Name: "x", CapacityKg: decimal.Zero})))
	assert.True(t, IsValidation(CheckSilo(model.Silo{CapacityKg: kg("10")})))
	assert.True(t, IsValidation(CheckSilo(model.Silo{Name: "x", CapacityKg: kg("1000.0001")})))
}

func TestKindOf_Wrapped(t *testing.T) {
	err := fmt.Errorf("create outbound: %w", Allocation("short by %s kg", "3"))
	assert.Equal(t, KindAllocation, KindOf(err))
	assert.True(t, IsAllocation(err))
	assert.False(t, IsBusiness(err))
	assert.Equal(t, Kind(0), KindOf(errors.New("plain")))
}
