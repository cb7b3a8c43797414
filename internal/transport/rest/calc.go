package rest

import (
	"net/http"

	"propvest/internal/engine"
)

func (h *Handler) repayment(w http.ResponseWriter, r *http.Request) {
	var req LoanRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, "repayment", err)
		return
	}
	m, err := req.toEngine("loan.", h.region)
	if err != nil {
		h.writeError(w, r, "repayment", err)
		return
	}

	payment, err := h.calc.Repayment(r.Context(), m)
	if err != nil {
		h.writeError(w, r, "repayment", err)
		return
	}

	currency := engine.Params(m.Region).Currency
	Success(w, "", map[string]any{
		"payment":   payment,
		"display":   payment.Format(currency),
		"currency":  currency,
		"frequency": m.Frequency,
		"periods":   m.Periods(),
	})
}

func (h *Handler) schedule(w http.ResponseWriter, r *http.Request) {
	var req ScheduleRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, "schedule", err)
		return
	}
	m, opts, err := req.toEngine("", h.region)
	if err != nil {
		h.writeError(w, r, "schedule", err)
		return
	}

	out, err := h.calc.Schedule(r.Context(), m, opts)
	if err != nil {
		h.writeError(w, r, "schedule", err)
		return
	}
	Success(w, "", out)
}

func (h *Handler) projection(w http.ResponseWriter, r *http.Request) {
	var req ProjectionRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, "projection", err)
		return
	}
	in, err := req.toEngine(h.region)
	if err != nil {
		h.writeError(w, r, "projection", err)
		return
	}

	out, err := h.calc.Projection(r.Context(), in)
	if err != nil {
		h.writeError(w, r, "projection", err)
		return
	}
	Success(w, "", out)
}

func (h *Handler) compare(w http.ResponseWriter, r *http.Request) {
	var req CompareRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, "compare", err)
		return
	}

	var scenarios [2]engine.Scenario
	for i, s := range []ScenarioRequest{req.A, req.B} {
		prefix := [...]string{"a.", "b."}[i]
		loan, opts, err := s.ScheduleRequest.toEngine(prefix, h.region)
		if err != nil {
			h.writeError(w, r, "compare", err)
			return
		}
		scenarios[i] = engine.Scenario{Name: s.Name, Loan: loan, Options: opts}
	}

	out, err := h.calc.Compare(r.Context(), scenarios[0], scenarios[1])
	if err != nil {
		h.writeError(w, r, "compare", err)
		return
	}
	Success(w, "", out)
}

func (h *Handler) tax(w http.ResponseWriter, r *http.Request) {
	var req TaxRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, "tax", err)
		return
	}
	out, err := h.calc.Tax(r.Context(), req.toEngine())
	if err != nil {
		h.writeError(w, r, "tax", err)
		return
	}
	Success(w, "", out)
}

func (h *Handler) lvr(w http.ResponseWriter, r *http.Request) {
	var req LVRRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, "lvr", err)
		return
	}
	if req.TargetLVR != nil && (*req.TargetLVR <= 0 || *req.TargetLVR > 100) {
		h.writeError(w, r, "lvr", &ValidationError{Field: "target_lvr", Message: "target_lvr must be above 0 and at most 100"})
		return
	}
	region, err := parseRegion("region", req.Region, h.region)
	if err != nil {
		h.writeError(w, r, "lvr", err)
		return
	}

	value := engine.Cents(req.PropertyValue)
	report, err := h.calc.Purchase(r.Context(), engine.Cents(req.LoanAmount), value, region)
	if err != nil {
		h.writeError(w, r, "lvr", err)
		return
	}

	data := map[string]any{"purchase": report}
	if req.TargetLVR != nil {
		deposit := engine.DepositForLVR(value, engine.PercentToBps(*req.TargetLVR))
		data["target_deposit"] = deposit
		data["target_deposit_display"] = deposit.Format(report.Currency)
	}
	Success(w, "", data)
}

func (h *Handler) growth(w http.ResponseWriter, r *http.Request) {
	var req GrowthRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, "growth", err)
		return
	}
	if req.StartYear == 0 {
		req.StartYear = h.now().Year()
	}

	out, err := h.calc.Growth(r.Context(), engine.Cents(req.StartValue), engine.PercentToBps(req.GrowthRate), req.StartYear, req.Years, forecasts(req.Forecasts))
	if err != nil {
		h.writeError(w, r, "growth", err)
		return
	}
	Success(w, "", out)
}
