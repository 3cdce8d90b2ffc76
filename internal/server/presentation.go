package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/banshee-data/sensitivity/internal/render"
	"github.com/banshee-data/sensitivity/internal/sensitivity"
	"github.com/banshee-data/sensitivity/internal/store"
)

// presentation is the stored presentation of run with the query parameters
// agg, color_map, reverse, num_fmt and grid_size applied over it.
func presentation(run *store.Run, r *http.Request) (render.Presentation, error) {
	p := render.DefaultPresentation()
	if err := run.DecodeSettings(&p); err != nil {
		return p, err
	}
	if run.AggFunc != "" {
		p.Agg = run.AggFunc
	}

	q := r.URL.Query()
	if q.Has("agg") {
		p.Agg = q.Get("agg")
	}
	if q.Has("color_map") {
		p.ColorMap = q.Get("color_map")
	}
	if q.Has("num_fmt") {
		p.NumFmt = q.Get("num_fmt")
	}
	if v := q.Get("reverse"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return p, &sensitivity.ConfigurationError{Msg: fmt.Sprintf("invalid reverse %q", v)}
		}
		p.ReverseColors = b
	}
	if v := q.Get("grid_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return p, &sensitivity.ConfigurationError{Msg: fmt.Sprintf("invalid grid_size %q", v)}
		}
		p.GridSize = n
	}
	return p, nil
}
