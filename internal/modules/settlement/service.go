// README: Settlement service runs every charge calculator over one return.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"carrental/internal/metrics"
	"carrental/internal/modules/charges"
	"carrental/internal/modules/inspection"
	"carrental/internal/types"
)

type TermsStore interface {
	GetTerms(ctx context.Context, agreementID types.ID) (Terms, error)
	SumTolls(ctx context.Context, agreementID types.ID, from, to time.Time) (decimal.Decimal, error)
}

type Inspections interface {
	ListByAgreement(ctx context.Context, agreementID types.ID) ([]inspection.Inspection, error)
}

type Service struct {
	store       TermsStore
	inspections Inspections
	calc        *charges.Calculator
	log         logrus.FieldLogger
}

func NewService(store TermsStore, inspections Inspections, calc *charges.Calculator, log logrus.FieldLogger) *Service {
	if calc == nil {
		calc = charges.Default()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{store: store, inspections: inspections, calc: calc, log: log}
}

// Quote prices a return from caller-supplied facts. It performs no I/O.
func (s *Service) Quote(in Input) Settlement {
	st := s.compute(in)
	metrics.SettlementsTotal.WithLabelValues("quote").Inc()
	return st
}

// Settle loads the agreement terms, inspections and tolls, then prices the return.
func (s *Service) Settle(ctx context.Context, agreementID types.ID) (Settlement, error) {
	if agreementID == "" {
		return Settlement{}, ErrBadRequest
	}
	terms, err := s.store.GetTerms(ctx, agreementID)
	if err != nil {
		return Settlement{}, err
	}
	list, err := s.inspections.ListByAgreement(ctx, agreementID)
	if err != nil {
		return Settlement{}, fmt.Errorf("list inspections: %w", err)
	}
	out, in, err := inspection.Pair(list)
	if errors.Is(err, inspection.ErrNoCheckin) || errors.Is(err, inspection.ErrNoCheckout) {
		return Settlement{}, fmt.Errorf("%w: %v", ErrNotReturned, err)
	}
	if err != nil {
		return Settlement{}, err
	}

	tolls, err := s.store.SumTolls(ctx, agreementID, terms.PickupAt, in.RecordedAt)
	if err != nil {
		return Settlement{}, fmt.Errorf("sum tolls: %w", err)
	}

	st := s.compute(inputFromInspections(terms, out, in, tolls))
	st.AgreementID = agreementID
	metrics.SettlementsTotal.WithLabelValues("stored").Inc()
	s.log.WithFields(logrus.Fields{
		"agreement_id":   agreementID,
		"total":          st.Totals.Total.StringFixed(2),
		"refund":         st.Deposit.Refund.StringFixed(2),
		"additional_due": st.Deposit.AdditionalPayment.StringFixed(2),
	}).Info("settlement computed")
	return st, nil
}

func (s *Service) compute(in Input) Settlement {
	t := in.Terms
	fuel := s.calc.Fuel(charges.FuelInput{
		CheckoutLevel: in.CheckoutFuelLevel,
		CheckinLevel:  in.CheckinFuelLevel,
		Policy:        t.FuelPolicy,
		TankCapacity:  t.TankCapacity,
	})
	mileage := s.calc.ExcessKm(charges.MileageInput{
		CheckoutOdometer: in.CheckoutOdometer,
		CheckinOdometer:  in.CheckinOdometer,
		IncludedKm:       t.IncludedKm,
		Class:            t.VehicleClass,
	})
	late := s.calc.LateReturn(charges.LateReturnInput{
		ScheduledReturn: t.ScheduledReturn,
		ActualReturn:    in.ActualReturn,
		Class:           t.VehicleClass,
		DailyRate:       t.DailyRate,
	})
	cleaning := s.calc.Cleaning(in.Cleaning)
	damage := s.calc.CompareDamageSets(in.CheckoutMarkers, in.CheckinMarkers, t.InsuranceExcess)

	totals := s.calc.Totals(charges.ChargeInput{
		DamageCharges:    charges.DamageTotal(damage.Charges),
		FuelCharge:       fuel.Charge,
		ExcessKmCharge:   mileage.Charge,
		CleaningFee:      cleaning,
		LateReturnCharge: late.Charge,
		SalikCharge:      in.SalikCharge,
	})

	st := Settlement{
		Fuel:        fuel,
		Mileage:     mileage,
		CleaningFee: cleaning,
		LateReturn:  late,
		Damage:      damage,
		Totals:      totals,
		Deposit:     charges.Deposit(t.SecurityDeposit, totals.Total),
		Currency:    types.Currency,
	}
	st.Summary = summarize(st.Totals, st.Deposit)
	for _, dc := range damage.Charges {
		if dc.Chargeable && dc.LowConfidence {
			st.LowConfidence = true
			metrics.DamageEstimateFallbacks.WithLabelValues(string(dc.CostSource)).Inc()
			s.log.WithFields(logrus.Fields{
				"damage_id":   dc.DamageID,
				"damage_type": dc.DamageType,
				"severity":    dc.Severity,
				"source":      dc.CostSource,
			}).Warn("damage cost estimated from fallback")
		}
	}
	return st
}

// inputFromInspections maps stored inspections onto usage facts. A fact missing
// on either side (legacy baseline without fuel or odometer) yields no charge.
func inputFromInspections(t Terms, out, in inspection.Inspection, tolls decimal.Decimal) Input {
	input := Input{
		Terms:           t,
		ActualReturn:    in.RecordedAt,
		Cleaning:        in.CleaningType,
		CheckoutMarkers: out.Markers,
		CheckinMarkers:  in.Markers,
		SalikCharge:     tolls,
	}
	if out.FuelLevel != nil && in.FuelLevel != nil {
		input.CheckoutFuelLevel = *out.FuelLevel
		input.CheckinFuelLevel = *in.FuelLevel
	}
	if out.Odometer != nil && in.Odometer != nil {
		input.CheckoutOdometer = *out.Odometer
		input.CheckinOdometer = *in.Odometer
	}
	return input
}
