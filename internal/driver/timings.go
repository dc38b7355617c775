package driver

import (
	"encoding/json"
	"fmt"

	"quill/internal/diag"
	"quill/internal/observ"
	"quill/internal/source"
)

// timingPayload is the wire shape of the JSON note carried by an
// ObsTimings diagnostic. Tools read it instead of parsing the message.
type timingPayload struct {
	Kind    string               `json:"kind"`
	Path    string               `json:"path,omitempty"`
	TotalMS float64              `json:"total_ms"`
	Phases  []observ.PhaseReport `json:"phases"`
}

// appendTimingDiagnostic публикует отчёт таймера как info-диагностику:
// человекочитаемое сообщение плюс JSON-нота с полной раскладкой фаз.
func appendTimingDiagnostic(bag *diag.Bag, kind, path string, report observ.Report) {
	if bag == nil {
		return
	}
	data, err := json.Marshal(timingPayload{
		Kind:    kind,
		Path:    path,
		TotalMS: report.TotalMS,
		Phases:  report.Phases,
	})
	if err != nil {
		return
	}
	msg := fmt.Sprintf("timings (%s): total %.2f ms", kind, report.TotalMS)
	if path != "" {
		msg += " - " + path
	}
	entry := diag.New(diag.SevInfo, diag.ObsTimings, source.Span{}, msg).
		WithNote(source.Span{}, string(data))
	if bag.Add(entry) {
		return
	}
	// Таймер закрывается последним, когда лимит уже мог сработать;
	// расширяем вместимость через Merge, чтобы отчёт не потерялся.
	spill := diag.NewBag(len(bag.Items()) + 1)
	spill.Add(entry)
	bag.Merge(spill)
}
