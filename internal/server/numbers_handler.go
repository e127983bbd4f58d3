package server

import (
	"net/http"
	"strings"

	"github.com/allyourbase/dialplan/internal/httputil"
	"github.com/allyourbase/dialplan/internal/numberinfo"
	"github.com/allyourbase/dialplan/phonenumber"
	"github.com/go-chi/chi/v5"
)

// defaultRegion resolves the region query parameter, falling back to
// engine.default_region and then to the unknown region.
func (s *Server) defaultRegion(r *http.Request) string {
	if v := strings.TrimSpace(r.URL.Query().Get("region")); v != "" {
		return strings.ToUpper(v)
	}
	if s.cfg.Engine.DefaultRegion != "" {
		return s.cfg.Engine.DefaultRegion
	}
	return phonenumber.UnknownRegion
}

// writeParseError maps a parse failure to 422 with its kind in data.kind.
func writeParseError(w http.ResponseWriter, err error) {
	kind, ok := phonenumber.KindOf(err)
	if !ok {
		httputil.WriteError(w, http.StatusInternalServerError, "internal error")
		return
	}
	httputil.WriteErrorWithData(w, http.StatusUnprocessableEntity, err.Error(), map[string]any{
		"kind": kind.String(),
	})
}

// handleNumber parses ?number= in ?region= and reports on it. ?from= selects
// the calling region for the out-of-country rendering and defaults to region.
func (s *Server) handleNumber(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("number")
	if strings.TrimSpace(text) == "" {
		httputil.WriteFieldError(w, http.StatusBadRequest, "missing number",
			"number", "required", "number query parameter is required")
		return
	}
	region := s.defaultRegion(r)

	from := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("from")))
	if from == "" && region != phonenumber.UnknownRegion {
		from = region
	}

	n, err := s.engine.ParseAndKeepRawInput(text, region)
	if err != nil {
		writeParseError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, numberinfo.Describe(s.engine, n, from))
}

// handleMatch compares ?a= and ?b= and reports the match strength.
func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	a, b := q.Get("a"), q.Get("b")
	if a == "" || b == "" {
		httputil.WriteError(w, http.StatusBadRequest, "both a and b query parameters are required")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"match": s.engine.IsNumberMatchStrings(a, b).String(),
	})
}

func (s *Server) handleListRegions(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"regions":       numberinfo.Regions(s.engine),
		"calling_codes": s.engine.SupportedCallingCodes(),
	})
}

func (s *Server) handleGetRegion(w http.ResponseWriter, r *http.Request) {
	region := strings.ToUpper(chi.URLParam(r, "region"))
	info, ok := numberinfo.DescribeRegion(s.engine, region)
	if !ok {
		httputil.WriteError(w, http.StatusNotFound, "unknown region "+region)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, info)
}

// handleRegionExample returns an example number of ?type= (default
// FIXED_LINE) for the region.
func (s *Server) handleRegionExample(w http.ResponseWriter, r *http.Request) {
	region := strings.ToUpper(chi.URLParam(r, "region"))
	if s.engine.CountryCodeForRegion(region) == 0 {
		httputil.WriteError(w, http.StatusNotFound, "unknown region "+region)
		return
	}

	t := phonenumber.FixedLine
	if v := r.URL.Query().Get("type"); v != "" {
		parsed, err := phonenumber.ParseNumberType(v)
		if err != nil {
			httputil.WriteFieldError(w, http.StatusBadRequest, "invalid type",
				"type", "invalid", err.Error())
			return
		}
		t = parsed
	}

	n, ok := s.engine.GetExampleNumberForType(region, t)
	if !ok {
		httputil.WriteError(w, http.StatusNotFound, "no "+t.String()+" example for "+region)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, numberinfo.Example{
		Region: region,
		Type:   t.String(),
		Number: numberinfo.Describe(s.engine, n, ""),
	})
}
