package view

import (
	"context"
	"html/template"
	"io"

	"github.com/gabrielmiguelok/stepform/pkg/core"
	"github.com/gabrielmiguelok/stepform/pkg/pool"
	"github.com/gabrielmiguelok/stepform/pkg/stepform"
)

// errorSuffix follows every validation message.
const errorSuffix = " 😔"

// Slot ids patched by diffs. Step panels use "step-" plus the field name.
const (
	SlotSummary = "summary"
	SlotActions = "actions"
)

type stepView struct {
	Slot         string
	Name         string
	Label        string
	Placeholder  string
	Autocomplete string
	InputType    string
	Value        string
	Error        string
	State        string
}

type summaryRow struct {
	Label string
	Value string
}

type formView struct {
	Title      string
	Subtitle   template.HTML
	Layout     string
	TrackStyle template.CSS
	Steps      []stepView
	AtSummary  bool
	Summary    []summaryRow
	Back       bool
	Forward    bool
	Submit     bool
}

var formTemplate = template.Must(template.New("stepform").Parse(`<div class="stepform" id="stepform" data-layout="{{.Layout}}">
<header class="stepform-header">
{{- if .Title}}<h2 class="stepform-title">{{.Title}}</h2>{{end}}
{{- if .Subtitle}}<h3 class="stepform-subtitle">{{.Subtitle}}</h3>{{end}}
</header>
<div class="stepform-viewport">
<div class="stepform-track" id="stepform-track" style="{{.TrackStyle}}">
{{- range .Steps}}
<div class="stepform-panel" data-slot="{{.Slot}}"><div class="stepform-step stepform-step--{{.State}}">
<label class="stepform-label" for="stepform-{{.Name}}">{{.Label}}</label>
<input class="stepform-input" id="stepform-{{.Name}}" name="{{.Name}}" type="{{.InputType}}" autocomplete="{{.Autocomplete}}" placeholder="{{.Placeholder}}" value="{{.Value}}" lv-change="input" lv-value-field="{{.Name}}" lv-debounce="150" lv-keydown="next" lv-key="Enter">
{{- if .Error}}
<p class="stepform-error" role="alert">{{.Error}}</p>
{{- end}}
</div></div>
{{- end}}
<div class="stepform-panel stepform-panel--summary" data-slot="summary">
{{- if .AtSummary}}<div class="stepform-summary"><h3 class="stepform-summary-title">Riepilogo</h3>
{{- range .Summary}}
<div class="stepform-summary-row"><strong>{{.Label}}:</strong> <span>{{.Value}}</span></div>
{{- end}}
</div>{{end -}}
</div>
</div>
</div>
<div class="stepform-actions" data-slot="actions"><div class="stepform-buttons">
{{- if .Back}}<button type="button" class="stepform-btn stepform-btn--back" lv-click="prev">⬅️ Indietro</button>{{end}}
{{- if .Forward}}<button type="button" class="stepform-btn stepform-btn--next" lv-click="next">Avanti ➡️</button>{{end}}
{{- if .Submit}}<button type="button" class="stepform-btn stepform-btn--submit" lv-click="submit">Invia 📤</button>{{end -}}
</div></div>
</div>`))

// Render returns the component HTML. Each step panel, the summary and the
// action bar are diff slots; the track and the root are not.
func (f *StepForm) Render(ctx context.Context) core.Renderer {
	return core.RendererFunc(func(ctx context.Context, w io.Writer) error {
		buf := pool.GetBuffer()
		defer pool.PutBuffer(buf)

		if err := formTemplate.Execute(buf, f.viewModel()); err != nil {
			return err
		}
		_, err := w.Write(buf.Bytes())
		return err
	})
}

func (f *StepForm) viewModel() formView {
	w := f.widget
	steps := w.Steps()

	vm := formView{
		Title:      f.opts.Title,
		Subtitle:   f.subtitle,
		Layout:     w.Layout().String(),
		TrackStyle: template.CSS("transform: " + w.Transform()),
		Steps:      make([]stepView, len(steps)),
		AtSummary:  w.AtSummary(),
		Back:       w.BackVisible(),
		Forward:    w.ForwardVisible(),
		Submit:     w.SubmitVisible(),
	}

	for i, step := range steps {
		sv := stepView{
			Slot:         StepSlot(step.ID()),
			Name:         string(step.ID()),
			Label:        step.Label,
			Placeholder:  step.Placeholder,
			Autocomplete: step.Autocomplete,
			InputType:    step.InputType(),
			Value:        w.Value(step.ID()),
			State:        w.StateOf(i).String(),
		}
		if fe := w.Error(step.ID()); fe != nil {
			sv.Error = fe.Message + errorSuffix
		}
		vm.Steps[i] = sv
	}

	if vm.AtSummary {
		data := w.Data()
		vm.Summary = make([]summaryRow, 0, len(steps))
		for _, step := range steps {
			value, _ := data.Get(step.ID())
			vm.Summary = append(vm.Summary, summaryRow{Label: step.Label, Value: value})
		}
	}

	return vm
}

// StepSlot returns the diff slot id of a step panel.
func StepSlot(name stepform.StepName) string {
	return "step-" + string(name)
}
