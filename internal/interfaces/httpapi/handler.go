package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"

	"github.com/openhuddle/matchwatch/internal/domain/settings"
	"github.com/openhuddle/matchwatch/internal/platform/logging"
	"github.com/openhuddle/matchwatch/internal/usecase"
)

const maxBodyBytes = 1 << 20

// Handler exposes the directory, snapshot, query, and settings services
// over HTTP.
type Handler struct {
	directories *usecase.DirectoryService
	queries     *usecase.QueryService
	refresher   *usecase.RefreshService
	settings    *usecase.SettingsService
	validate    *validator.Validate
	logger      *logging.Logger
}

func NewHandler(
	directories *usecase.DirectoryService,
	queries *usecase.QueryService,
	refresher *usecase.RefreshService,
	settingsSvc *usecase.SettingsService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Handler{
		directories: directories,
		queries:     queries,
		refresher:   refresher,
		settings:    settingsSvc,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		logger:      logger,
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) GetPlayer(w http.ResponseWriter, r *http.Request) {
	record, err := h.directories.Get(r.Context(), r.PathValue("playerID"))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeData(w, http.StatusOK, record)
}

func (h *Handler) SearchPlayers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	limit := parseIntParam(r, "limit", 10)

	records, err := h.directories.Search(r.Context(), query, limit)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeData(w, http.StatusOK, records)
}

func (h *Handler) RefreshDirectory(w http.ResponseWriter, r *http.Request) {
	force := parseBoolParam(r, "force")
	env, err := h.directories.Refresh(r.Context(), force)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{
		"players":   len(env.Payload.Records),
		"updatedAt": env.UpdatedAt,
		"forced":    force,
	})
}

func (h *Handler) ActiveWeek(w http.ResponseWriter, r *http.Request) {
	summary, err := h.queries.ActiveWeek(r.Context(), r.PathValue("leagueID"))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeData(w, http.StatusOK, summary)
}

func (h *Handler) PlayerTrend(w http.ResponseWriter, r *http.Request) {
	week := parseIntParam(r, "week", 0)
	trend, err := h.queries.Trend(r.Context(), r.PathValue("leagueID"), r.PathValue("playerID"), week)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeData(w, http.StatusOK, trend)
}

type teamTotalsRequest struct {
	RosterID string   `json:"rosterId" validate:"omitempty,max=32"`
	Week     int      `json:"week" validate:"gte=0,lte=25"`
	Starters []string `json:"starters" validate:"omitempty,max=30,dive,required"`
}

func (h *Handler) TeamTotals(w http.ResponseWriter, r *http.Request) {
	var req teamTotalsRequest
	if err := h.decodeBody(r, &req); err != nil {
		writeError(r.Context(), w, err)
		return
	}

	result := h.queries.TeamTotals(r.Context(), r.PathValue("leagueID"), req.RosterID, req.Week, req.Starters)
	writeData(w, http.StatusOK, result)
}

func (h *Handler) RefreshLeague(w http.ResponseWriter, r *http.Request) {
	force := parseBoolParam(r, "force")
	outcome := h.refresher.RefreshLeague(r.Context(), r.PathValue("leagueID"), force)
	writeData(w, http.StatusOK, outcome)
}

func (h *Handler) RefreshAll(w http.ResponseWriter, r *http.Request) {
	force := parseBoolParam(r, "force")
	report, err := h.refresher.RefreshAll(r.Context(), force)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeData(w, http.StatusOK, report)
}

func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	current, err := h.settings.Get(r.Context())
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeData(w, http.StatusOK, current)
}

type updateSettingsRequest struct {
	LeagueIDs       []string `json:"leagueIds" validate:"max=50,dive,required"`
	ShowRanks       bool     `json:"showRanks"`
	ShowProjections bool     `json:"showProjections"`
}

func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req updateSettingsRequest
	if err := h.decodeBody(r, &req); err != nil {
		writeError(r.Context(), w, err)
		return
	}

	updated, err := h.settings.Update(r.Context(), settings.Settings{
		LeagueIDs:       req.LeagueIDs,
		ShowRanks:       req.ShowRanks,
		ShowProjections: req.ShowProjections,
	})
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeData(w, http.StatusOK, updated)
}

type trackLeagueRequest struct {
	LeagueID string `json:"leagueId" validate:"required,max=32"`
}

func (h *Handler) TrackLeague(w http.ResponseWriter, r *http.Request) {
	var req trackLeagueRequest
	if err := h.decodeBody(r, &req); err != nil {
		writeError(r.Context(), w, err)
		return
	}

	updated, err := h.settings.TrackLeague(r.Context(), req.LeagueID)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeData(w, http.StatusCreated, updated)
}

func (h *Handler) UntrackLeague(w http.ResponseWriter, r *http.Request) {
	updated, err := h.settings.UntrackLeague(r.Context(), r.PathValue("leagueID"))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeData(w, http.StatusOK, updated)
}

func (h *Handler) decodeBody(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read request body: %w", usecase.ErrInvalidInput)
	}
	if len(body) > 0 {
		if err := sonic.Unmarshal(body, dst); err != nil {
			return fmt.Errorf("malformed request body: %w", usecase.ErrInvalidInput)
		}
	}
	if err := h.validate.Struct(dst); err != nil {
		return fmt.Errorf("%s: %w", validationMessage(err), usecase.ErrInvalidInput)
	}
	return nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		first := verrs[0]
		return fmt.Sprintf("field %s failed on %s", first.Field(), first.Tag())
	}
	return "request validation failed"
}

func parseIntParam(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func parseBoolParam(r *http.Request, name string) bool {
	value, err := strconv.ParseBool(r.URL.Query().Get(name))
	return err == nil && value
}
