package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sitemix/sitemix/pkg/timeseries"
	"github.com/sitemix/sitemix/pkg/types"
)

func testCylinderConfig() *types.CylinderConfig {
	return &types.CylinderConfig{
		VolumeL:   200,
		MaxTempC:  60,
		ColdFeedC: 10,
		HeaterKW:  3,
	}
}

func TestCylinderServesDrawFromStore(t *testing.T) {
	site := testSite(1)
	c := newCylinder(site, testCylinderConfig(), site.Tariff(0))
	c.storeKWH = 5

	l := NewLedger(1)
	l.StepContribute(CatDHW, 3, 0)
	c.StepCalc(l, 0)

	assert.InDelta(t, 0, l.At(CatDHW, 0), 0.0001)
	assert.InDelta(t, 2, c.storeKWH, 0.0001)
	// flat tariff is never strictly below its own mean, so no recharge
	assert.InDelta(t, 0, l.At(CatElec, 0), 0.0001)
}

func TestCylinderDrawBoundedByStore(t *testing.T) {
	site := testSite(1)
	c := newCylinder(site, testCylinderConfig(), site.Tariff(0))
	c.storeKWH = 1

	l := NewLedger(1)
	l.StepContribute(CatDHW, 4, 0)
	c.StepCalc(l, 0)

	assert.InDelta(t, 3, l.At(CatDHW, 0), 0.0001, "unserved draw stays on the ledger")
	assert.InDelta(t, 0, c.storeKWH, 0.0001)
}

func TestCylinderStandbyLoss(t *testing.T) {
	site := testSite(1)
	cfg := testCylinderConfig()
	cfg.LossKWPerC = 0.05
	c := newCylinder(site, cfg, site.Tariff(0))
	c.storeKWH = 5

	l := NewLedger(1)
	c.StepCalc(l, 0)

	tankC := cfg.ColdFeedC + 5/(cfg.VolumeL*kwhPerLitreC)
	loss := 0.05 * (tankC - 10) // 10°C ambient, 1 h steps
	assert.InDelta(t, 5-loss, c.storeKWH, 0.0001)
}

func TestCylinderChargesFromSurplusFirst(t *testing.T) {
	site := testSite(1)
	c := newCylinder(site, testCylinderConfig(), site.Tariff(0))

	l := NewLedger(1)
	l.StepContribute(CatElec, -4, 0)
	c.StepCalc(l, 0)

	// heater-limited to 3 of the 4 kWh surplus
	assert.InDelta(t, 3, c.storeKWH, 0.0001)
	assert.InDelta(t, -1, l.At(CatElec, 0), 0.0001)
}

func TestCylinderChargesWhenTariffBelowMean(t *testing.T) {
	site := testSite(2)
	site.ImportTariff = []timeseries.Series{{0.1, 0.5}}
	c := newCylinder(site, testCylinderConfig(), site.Tariff(0))

	l := NewLedger(2)
	c.StepCalc(l, 0)
	assert.InDelta(t, 3, c.storeKWH, 0.0001, "cheap step charges at full heater power")
	assert.InDelta(t, 3, l.At(CatElec, 0), 0.0001)

	before := c.storeKWH
	c.StepCalc(l, 1)
	assert.InDelta(t, before, c.storeKWH, 0.0001, "expensive step with no surplus does not charge")
}

func TestCylinderForcedChargeBeforeNextDraw(t *testing.T) {
	site := testSite(2)
	site.ImportTariff = []timeseries.Series{{0.5, 0.5}}
	site.DHWDemandKWH = timeseries.Series{0, 2}
	c := newCylinder(site, testCylinderConfig(), site.Tariff(0))

	l := NewLedger(2)
	c.StepCalc(l, 0)

	assert.InDelta(t, 2, c.storeKWH, 0.0001, "topped up to cover the next draw-off")
	assert.InDelta(t, 2, c.shortfallKWH.At(0), 0.0001)
	assert.InDelta(t, 2, l.At(CatElec, 0), 0.0001)
}

func TestCylinderChargeBoundedByCapacity(t *testing.T) {
	site := testSite(1)
	cfg := testCylinderConfig()
	cfg.HeaterKW = 100
	c := newCylinder(site, cfg, site.Tariff(0))
	c.storeKWH = c.capacityKWH - 1

	l := NewLedger(1)
	l.StepContribute(CatElec, -50, 0)
	c.StepCalc(l, 0)

	assert.InDelta(t, c.capacityKWH, c.storeKWH, 0.0001, "never above capacity")
	assert.InDelta(t, -49, l.At(CatElec, 0), 0.0001)
}
