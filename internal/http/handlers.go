package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ipcproject/luna/internal/domain"
)

var validate = validator.New()

// overviewRequest is the analytics filter as submitted by the dashboard.
// status_code, request_method, application_name and path accept either a
// scalar or a list.
type overviewRequest struct {
	StartDate       string     `json:"start_date"`
	EndDate         string     `json:"end_date"`
	StatusCode      intList    `json:"status_code" validate:"omitempty,dive,min=100,max=599"`
	RequestMethod   stringList `json:"request_method" validate:"omitempty,dive,oneof=GET POST PUT PATCH DELETE HEAD OPTIONS"`
	ApplicationName stringList `json:"application_name"`
	Path            stringList `json:"path"`
}

func (r *Router) handleDashboard(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	overview, err := r.analytics.Dashboard(req.Context(), req.Header.Get(roleHeader))
	if err != nil {
		r.respondServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

func (r *Router) handleOverview(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var payload overviewRequest
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(payload); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid filter: %v", err))
		return
	}

	filter := domain.Filter{
		StatusCodes:  payload.StatusCode,
		Methods:      payload.RequestMethod,
		Paths:        payload.Path,
		Applications: payload.ApplicationName,
		Role:         req.Header.Get(roleHeader),
	}
	var err error
	if filter.Start, err = parseDate(payload.StartDate); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid start_date: %v", err))
		return
	}
	if filter.End, err = parseDate(payload.EndDate); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid end_date: %v", err))
		return
	}

	overview, err := r.analytics.Overview(req.Context(), filter)
	if err != nil {
		r.respondServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

func (r *Router) handleConfiguration(w http.ResponseWriter, req *http.Request) {
	switch req.Method {
	case http.MethodGet:
		values, err := r.settings.Resolve(req.Context(),
			domain.KeyDefaultDateRange,
			domain.KeyAlertActivated,
			domain.KeyErrorRateThreshold,
			domain.KeyResponseTimeThreshold,
			domain.KeySendEmailEvery,
			domain.KeyRecipients,
			domain.KeyApplications,
		)
		if err != nil {
			r.respondServiceError(w, req, err)
			return
		}
		writeJSON(w, http.StatusOK, values)
	case http.MethodPost:
		var payload map[string]string
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if len(payload) == 0 {
			writeError(w, http.StatusBadRequest, "no configuration entries provided")
			return
		}
		entries, err := r.settings.Put(req.Context(), payload)
		if err != nil {
			r.respondServiceError(w, req, err)
			return
		}
		writeJSON(w, http.StatusCreated, entries)
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleApplications(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	apps, err := r.registry.List(req.Context(), nil, false)
	if err != nil {
		r.respondServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, apps)
}

// parseDate reads an ISO-8601 timestamp; empty input means "use default".
func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// intList unmarshals either a JSON number or an array of numbers.
type intList []int

func (l *intList) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '[' {
		var values []int
		if err := json.Unmarshal(data, &values); err != nil {
			return err
		}
		*l = values
		return nil
	}
	// Integers may also arrive as quoted strings.
	var scalar json.Number
	if err := json.Unmarshal(data, &scalar); err != nil {
		var quoted string
		if err := json.Unmarshal(data, &quoted); err != nil {
			return err
		}
		scalar = json.Number(quoted)
	}
	n, err := strconv.Atoi(scalar.String())
	if err != nil {
		return err
	}
	*l = []int{n}
	return nil
}

// stringList unmarshals either a JSON string or an array of strings.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '[' {
		var values []string
		if err := json.Unmarshal(data, &values); err != nil {
			return err
		}
		*l = values
		return nil
	}
	var scalar string
	if err := json.Unmarshal(data, &scalar); err != nil {
		return err
	}
	*l = []string{scalar}
	return nil
}
