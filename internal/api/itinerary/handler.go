package itinerary

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/go-trip-planner/internal/api"
	"github.com/FACorreiaa/go-trip-planner/internal/types"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	GeneratePlanHandler(w http.ResponseWriter, r *http.Request)
	GetPlanHandler(w http.ResponseWriter, r *http.Request)
	ReorderPlanHandler(w http.ResponseWriter, r *http.Request)
	GetBudgetHandler(w http.ResponseWriter, r *http.Request)
	ConvertHandler(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	logger  *slog.Logger
	service Service
}

func NewHandler(service Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		logger:  logger,
		service: service,
	}
}

// GeneratePlanHandler godoc
// @Summary      Generate Trip Plan
// @Description  Clusters the trip's suggestions into days, assigns hotel stays and orders each day. Replaces any existing plan.
// @Tags         Itinerary
// @Produce      json
// @Param        tripID path string true "Trip ID"
// @Success      200 {object} types.Plan "Generated plan"
// @Failure      400 {object} api.Response "Invalid trip ID"
// @Failure      404 {object} api.Response "Trip not found"
// @Failure      409 {object} api.Response "Concurrent modification"
// @Failure      422 {object} api.ValidationErrorBody "Trip cannot be planned"
// @Failure      500 {object} api.Response "Internal Server Error"
// @Router       /trips/{tripID}/plan/generate [post]
func (h *HandlerImpl) GeneratePlanHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "GeneratePlan")
	defer span.End()
	l := h.logger.With(slog.String("handler", "GeneratePlanHandler"))

	tripID, ok := h.tripID(w, r, l)
	if !ok {
		span.SetStatus(codes.Error, "Invalid trip ID")
		return
	}
	span.SetAttributes(attribute.String("trip.id", tripID.String()))

	plan, err := h.service.GeneratePlan(ctx, tripID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to generate plan")
		api.ServiceErrorResponse(w, r, err)
		return
	}

	setVersion(w, plan.Version)
	span.SetStatus(codes.Ok, "Plan generated")
	api.WriteJSONResponse(w, r, http.StatusOK, plan)
}

// GetPlanHandler godoc
// @Summary      Get Trip Plan
// @Description  Returns the stored plan. The ETag header carries the plan version for If-Match on reorder.
// @Tags         Itinerary
// @Produce      json
// @Param        tripID path string true "Trip ID"
// @Success      200 {object} types.Plan "Current plan"
// @Failure      400 {object} api.Response "Invalid trip ID"
// @Failure      404 {object} api.Response "Plan not found"
// @Failure      500 {object} api.Response "Internal Server Error"
// @Router       /trips/{tripID}/plan [get]
func (h *HandlerImpl) GetPlanHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "GetPlan")
	defer span.End()
	l := h.logger.With(slog.String("handler", "GetPlanHandler"))

	tripID, ok := h.tripID(w, r, l)
	if !ok {
		span.SetStatus(codes.Error, "Invalid trip ID")
		return
	}

	plan, err := h.service.GetPlan(ctx, tripID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to load plan")
		api.ServiceErrorResponse(w, r, err)
		return
	}

	setVersion(w, plan.Version)
	span.SetStatus(codes.Ok, "Plan loaded")
	api.WriteJSONResponse(w, r, http.StatusOK, plan)
}

// ReorderPlanHandler godoc
// @Summary      Reorder Trip Plan
// @Description  Replaces the day and order of every scheduled activity at once. Rejected in full on any invalid field.
// @Tags         Itinerary
// @Accept       json
// @Produce      json
// @Param        tripID path string true "Trip ID"
// @Param        If-Match header string false "Expected plan version"
// @Param        request body types.ReorderRequest true "Full day/activity mapping"
// @Success      200 {object} types.Plan "Reordered plan"
// @Failure      400 {object} api.Response "Malformed request"
// @Failure      404 {object} api.Response "Plan not found"
// @Failure      409 {object} api.Response "Plan version changed"
// @Failure      422 {object} api.ValidationErrorBody "Invalid reorder"
// @Failure      500 {object} api.Response "Internal Server Error"
// @Router       /trips/{tripID}/plan/days [put]
func (h *HandlerImpl) ReorderPlanHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "ReorderPlan")
	defer span.End()
	l := h.logger.With(slog.String("handler", "ReorderPlanHandler"))

	tripID, ok := h.tripID(w, r, l)
	if !ok {
		span.SetStatus(codes.Error, "Invalid trip ID")
		return
	}

	expected, err := expectedVersion(r)
	if err != nil {
		l.WarnContext(ctx, "Invalid If-Match header", slog.Any("error", err))
		span.SetStatus(codes.Error, "Invalid If-Match")
		api.ErrorResponse(w, r, http.StatusBadRequest, "If-Match must carry a plan version")
		return
	}

	var req types.ReorderRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode reorder request", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Bad request")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	span.SetAttributes(attribute.Int("reorder.days", len(req.Days)), attribute.Int64("plan.expected_version", expected))

	plan, err := h.service.ReorderPlan(ctx, tripID, expected, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to reorder plan")
		api.ServiceErrorResponse(w, r, err)
		return
	}

	setVersion(w, plan.Version)
	span.SetStatus(codes.Ok, "Plan reordered")
	api.WriteJSONResponse(w, r, http.StatusOK, plan)
}

// GetBudgetHandler godoc
// @Summary      Get Trip Budget
// @Description  Sums activity prices per day in the display currency at each day's reference rate.
// @Tags         Itinerary
// @Produce      json
// @Param        tripID path string true "Trip ID"
// @Param        currency query string false "Display currency (ISO 4217)"
// @Success      200 {object} types.Budget "Budget"
// @Failure      400 {object} api.Response "Invalid trip ID"
// @Failure      404 {object} api.Response "Trip or plan not found"
// @Failure      422 {object} api.ValidationErrorBody "Invalid currency"
// @Failure      500 {object} api.Response "Internal Server Error"
// @Router       /trips/{tripID}/budget [get]
func (h *HandlerImpl) GetBudgetHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "GetBudget")
	defer span.End()
	l := h.logger.With(slog.String("handler", "GetBudgetHandler"))

	tripID, ok := h.tripID(w, r, l)
	if !ok {
		span.SetStatus(codes.Error, "Invalid trip ID")
		return
	}

	b, err := h.service.GetBudget(ctx, tripID, r.URL.Query().Get("currency"))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to compute budget")
		api.ServiceErrorResponse(w, r, err)
		return
	}

	span.SetStatus(codes.Ok, "Budget computed")
	api.WriteJSONResponse(w, r, http.StatusOK, b)
}

// ConvertHandler godoc
// @Summary      Convert Amount
// @Description  Converts an amount at the reference rate of a date. Falls back to bundled rates, flagged approximate, when the source is unavailable.
// @Tags         Rates
// @Produce      json
// @Param        amount query string true "Amount"
// @Param        from query string true "Source currency"
// @Param        to query string true "Target currency"
// @Param        date query string false "Rate date (YYYY-MM-DD), defaults to today"
// @Success      200 {object} types.Conversion "Conversion"
// @Failure      422 {object} api.ValidationErrorBody "Invalid parameters"
// @Failure      500 {object} api.Response "Internal Server Error"
// @Router       /rates/convert [get]
func (h *HandlerImpl) ConvertHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ItineraryHandler").Start(r.Context(), "Convert")
	defer span.End()

	q := r.URL.Query()
	verr := &types.ValidationError{}
	amount, err := decimal.NewFromString(q.Get("amount"))
	if err != nil {
		verr.Add("amount", "must be a decimal number")
	}
	onDate := time.Now().UTC()
	if raw := q.Get("date"); raw != "" {
		if onDate, err = time.Parse(dateLayout, raw); err != nil {
			verr.Add("date", "must be formatted YYYY-MM-DD")
		}
	}
	if verr.HasErrors() {
		span.SetStatus(codes.Error, "Invalid parameters")
		api.ValidationErrorResponse(w, r, verr)
		return
	}

	conv, err := h.service.Convert(ctx, amount, q.Get("from"), q.Get("to"), onDate)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Conversion failed")
		api.ServiceErrorResponse(w, r, err)
		return
	}

	span.SetStatus(codes.Ok, "Converted")
	api.WriteJSONResponse(w, r, http.StatusOK, conv)
}

func (h *HandlerImpl) tripID(w http.ResponseWriter, r *http.Request, l *slog.Logger) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "tripID")
	id, err := uuid.Parse(raw)
	if err != nil {
		l.WarnContext(r.Context(), "Invalid trip ID format", slog.String("tripID", raw), slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid trip ID format")
		return uuid.Nil, false
	}
	return id, true
}

func setVersion(w http.ResponseWriter, version int64) {
	w.Header().Set("ETag", strconv.Quote(strconv.FormatInt(version, 10)))
}

// expectedVersion reads If-Match, falling back to the expected_version query
// parameter. Absent means zero.
func expectedVersion(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.Header.Get("If-Match"))
	if raw == "" {
		raw = r.URL.Query().Get("expected_version")
	}
	if raw == "" {
		return 0, nil
	}
	raw = strings.Trim(strings.TrimPrefix(raw, "W/"), `"`)
	return strconv.ParseInt(raw, 10, 64)
}
