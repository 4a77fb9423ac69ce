// README: Charge quote and deposit handlers over caller-supplied facts.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"carrental/internal/modules/charges"
	"carrental/internal/modules/rates"
	"carrental/internal/modules/settlement"
)

type Quoter interface {
	Quote(in settlement.Input) settlement.Settlement
}

type ChargesHandler struct {
	settlement Quoter
}

func NewChargesHandler(svc Quoter) *ChargesHandler {
	return &ChargesHandler{settlement: svc}
}

type quoteReq struct {
	VehicleClass      rates.VehicleClass     `json:"vehicle_class"`
	FuelPolicy        rates.FuelPolicy       `json:"fuel_policy"`
	TankCapacity      float64                `json:"tank_capacity"`
	IncludedKm        float64                `json:"included_km"`
	DailyRate         decimal.Decimal        `json:"daily_rate"`
	SecurityDeposit   decimal.Decimal        `json:"security_deposit"`
	InsuranceExcess   *decimal.Decimal       `json:"insurance_excess"`
	ScheduledReturn   time.Time              `json:"scheduled_return"`
	ActualReturn      time.Time              `json:"actual_return"`
	CheckoutFuelLevel float64                `json:"checkout_fuel_level"`
	CheckinFuelLevel  float64                `json:"checkin_fuel_level"`
	CheckoutOdometer  float64                `json:"checkout_odometer"`
	CheckinOdometer   float64                `json:"checkin_odometer"`
	Cleaning          rates.CleaningType     `json:"cleaning"`
	CheckoutMarkers   []charges.DamageMarker `json:"checkout_markers"`
	CheckinMarkers    []charges.DamageMarker `json:"checkin_markers"`
	SalikCharge       decimal.Decimal        `json:"salik_charge"`
}

func (h *ChargesHandler) Quote(c *gin.Context) {
	var req quoteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if req.ScheduledReturn.IsZero() || req.ActualReturn.IsZero() {
		writeError(c, http.StatusBadRequest, "scheduled_return and actual_return are required")
		return
	}
	if req.FuelPolicy == "" {
		req.FuelPolicy = rates.FuelFullToFull
	}
	st := h.settlement.Quote(settlement.Input{
		Terms: settlement.Terms{
			VehicleClass:    req.VehicleClass,
			FuelPolicy:      req.FuelPolicy,
			TankCapacity:    req.TankCapacity,
			IncludedKm:      req.IncludedKm,
			DailyRate:       req.DailyRate,
			SecurityDeposit: req.SecurityDeposit,
			InsuranceExcess: req.InsuranceExcess,
			ScheduledReturn: req.ScheduledReturn,
		},
		CheckoutFuelLevel: req.CheckoutFuelLevel,
		CheckinFuelLevel:  req.CheckinFuelLevel,
		CheckoutOdometer:  req.CheckoutOdometer,
		CheckinOdometer:   req.CheckinOdometer,
		ActualReturn:      req.ActualReturn,
		Cleaning:          req.Cleaning,
		CheckoutMarkers:   req.CheckoutMarkers,
		CheckinMarkers:    req.CheckinMarkers,
		SalikCharge:       req.SalikCharge,
	})
	writeJSON(c, http.StatusOK, st)
}

type depositReq struct {
	SecurityDeposit decimal.Decimal `json:"security_deposit"`
	TotalCharges    decimal.Decimal `json:"total_charges"`
}

func (h *ChargesHandler) Deposit(c *gin.Context) {
	var req depositReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	writeJSON(c, http.StatusOK, charges.Deposit(req.SecurityDeposit, req.TotalCharges))
}
