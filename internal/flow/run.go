package flow

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/silogic/edactl/internal/locate"
)

// Flow statuses summarize a chained run for remote callers.
const (
	StatusOK               = "ok"
	StatusSynthesisFailed  = "synthesis_failed"
	StatusPlaceRouteFailed = "place_route_failed"
	StatusPnRToolNotFound  = "openroad_not_found"
)

// FlowResult is the outcome of a full synthesis plus place-and-route
// chain. PlaceRoute is zero when synthesis never produced a netlist.
type FlowResult struct {
	Status     string `json:"status"`
	Synthesis  Result `json:"synthesis"`
	PlaceRoute Result `json:"place_route"`
}

// Run chains synthesis into place-and-route on the synthesized
// netlist. A missing place-and-route tool is reported as a status
// rather than an error so the synthesis artifacts stay usable.
func (e *Engine) Run(ctx context.Context, job Job, gui bool) (FlowResult, error) {
	fr := FlowResult{Status: StatusSynthesisFailed}

	synth, err := e.Synthesize(ctx, job)
	fr.Synthesis = synth
	if err != nil {
		return fr, err
	}
	if !synth.Success {
		return fr, nil
	}

	pnr, err := e.PlaceAndRoute(ctx, PnRJob{
		Netlist: synth.Artifact,
		Top:     job.Top,
		GUI:     gui,
	})
	fr.PlaceRoute = pnr
	if err != nil {
		if errors.Is(err, locate.ErrNotFound) {
			fr.Status = StatusPnRToolNotFound
			log.Warn().Str("run_id", synth.RunID).Msg("place and route tool not found, keeping synthesis artifacts")
			return fr, nil
		}
		return fr, err
	}
	if !pnr.Success {
		fr.Status = StatusPlaceRouteFailed
		return fr, nil
	}

	fr.Status = StatusOK
	return fr, nil
}
