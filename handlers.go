package lingo

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pitabwire/util"

	"github.com/pitabwire/lingo/browser"
	"github.com/pitabwire/lingo/locale"
	"github.com/pitabwire/lingo/localization"
)

var ErrMissingParameter = errors.New("missing request parameter")

const maxSortBodyBytes = 1 << 20

type compareResponse struct {
	Locale string `json:"locale"`
	Result int    `json:"result"`
}

type sortRequest struct {
	Locale string   `json:"locale"`
	Values []string `json:"values"`
}

type sortResponse struct {
	Locale  string   `json:"locale"`
	Values  []string `json:"values"`
	Summary string   `json:"summary"`
}

type formatDateResponse struct {
	Locale    string `json:"locale"`
	Formatted string `json:"formatted"`
}

type locationResponse struct {
	URI string `json:"uri"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// requestLocale picks the locale for r: the lang parameter, then Accept-Language,
// then the service default.
// An explicit lang is used as given so that a malformed one is reported.
func (s *Service) requestLocale(r *http.Request) string {
	if lang := r.URL.Query().Get("lang"); lang != "" {
		return lang
	}
	if tag, ok := localization.PreferredLocale(localization.FromContext(r.Context())); ok {
		return tag
	}
	return s.DefaultLocale()
}

// writeError answers 400 with messageID translated for the caller.
func (s *Service) writeError(w http.ResponseWriter, r *http.Request, err error, messageID string, vars map[string]any) {
	util.Log(r.Context()).WithError(err).WithField("message", messageID).Debug("rejecting request")

	msg := s.localization.TranslateWithMap(r.Context(), r.Context(), messageID, vars)
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

func (s *Service) handleCompare(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	for _, name := range []string{"a", "b"} {
		if !query.Has(name) {
			s.writeError(w, r, ErrMissingParameter, "MissingParameter", map[string]any{"Name": name})
			return
		}
	}

	tag := s.requestLocale(r)
	result, err := s.facility.Compare(tag, query.Get("a"), query.Get("b"))
	if err != nil {
		s.writeError(w, r, err, "InvalidLocale", map[string]any{"Locale": tag})
		return
	}

	writeJSON(w, http.StatusOK, compareResponse{Locale: tag, Result: sign(result)})
}

func (s *Service) handleSort(w http.ResponseWriter, r *http.Request) {
	var req sortRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSortBodyBytes)).Decode(&req); err != nil {
		s.writeError(w, r, err, "InvalidBody", nil)
		return
	}

	tag := req.Locale
	if tag == "" {
		tag = s.requestLocale(r)
	}

	values := req.Values
	if values == nil {
		values = []string{}
	}

	if err := s.facility.Sort(tag, values); err != nil {
		s.writeError(w, r, err, "InvalidLocale", map[string]any{"Locale": tag})
		return
	}

	summary := s.localization.TranslateWithMapAndCount(
		r.Context(), r.Context(), "ValuesSorted", map[string]any{"Count": len(values)}, len(values))

	writeJSON(w, http.StatusOK, sortResponse{Locale: tag, Values: values, Summary: summary})
}

func (s *Service) handleFormatDate(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("t")
	if raw == "" {
		s.writeError(w, r, ErrMissingParameter, "MissingParameter", map[string]any{"Name": "t"})
		return
	}

	ts, err := locale.ParseTimestamp(raw)
	if err != nil {
		s.writeError(w, r, err, "InvalidTimestamp", map[string]any{"Value": raw})
		return
	}

	tag := s.requestLocale(r)
	formatted, err := s.facility.FormatDate(tag, ts)
	if err != nil {
		s.writeError(w, r, err, "InvalidLocale", map[string]any{"Locale": tag})
		return
	}

	writeJSON(w, http.StatusOK, formatDateResponse{Locale: tag, Formatted: formatted})
}

func (s *Service) handleLocation(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, locationResponse{URI: browser.CurrentURI(r)})
}

func (s *Service) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.facility.Stats())
}

func sign(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	default:
		return 0
	}
}
