package view

import (
	"context"
	"io"

	"github.com/gabrielmiguelok/stepform/internal/website"
	"github.com/gabrielmiguelok/stepform/pkg/router"
)

// ClientScript is where the browser client is served.
const ClientScript = "/_live/stepform.js"

// Page returns the layout wrapping the initial render into a document that
// loads the client script.
func Page(cfg website.PageConfig) router.Layout {
	if len(cfg.Scripts) == 0 {
		cfg.Scripts = []string{ClientScript}
	}
	return func(ctx context.Context, w io.Writer, body []byte) error {
		return website.RenderDocument(w, cfg, formStyles, body)
	}
}

// The track transform and the data-layout attribute are driven by the
// server, so there are no width media queries here.
const formStyles = `
.stepform{width:100%;max-width:40rem;display:flex;flex-direction:column;gap:1rem}
.stepform-header{text-align:center}
.stepform-title{font-size:1.5rem;font-weight:700}
.stepform-subtitle{font-size:1rem;font-weight:400;color:var(--color-textMuted)}
.stepform-viewport{width:100%}
.stepform-track{display:flex;flex-direction:column;gap:1rem}
.stepform-panel:empty{display:none}
.stepform-step{padding:1.25rem;border-radius:0.5rem;box-shadow:0 4px 6px -1px rgba(0,0,0,0.1);display:flex;flex-direction:column;gap:0.5rem;transition:all 0.3s ease}
.stepform-step--completed{background:var(--color-completed)}
.stepform-step--active{background:var(--color-active)}
.stepform-step--pending{background:var(--color-pending);filter:blur(2px)}
.stepform-label{font-weight:600}
.stepform-input{width:100%;padding:0.5rem 0.75rem;border:1px solid var(--color-border);border-radius:0.375rem;background:#FFFFFF}
.stepform-input:focus{outline:none;box-shadow:0 0 0 2px var(--color-focus)}
.stepform-error{color:var(--color-danger);font-size:0.875rem}
.stepform-summary{padding:1.25rem;border-radius:0.5rem;background:var(--color-pending);display:flex;flex-direction:column;gap:0.5rem}
.stepform-summary-title{font-size:1.125rem;font-weight:700}
.stepform-summary-row span{overflow-wrap:anywhere}
.stepform-buttons{display:flex;justify-content:space-between;gap:0.75rem}
.stepform-btn{padding:0.5rem 1rem;border:none;border-radius:0.375rem;color:#FFFFFF;background:var(--color-primary);cursor:pointer;min-height:2.75rem}
.stepform-btn:hover{background:var(--color-primaryHover)}
.stepform-btn--next,.stepform-btn--submit{margin-left:auto}
.stepform-btn--submit{background:var(--color-submit)}
.stepform-btn--submit:hover{background:var(--color-submitHover)}
.stepform[data-layout="mobile"] .stepform-viewport{overflow:hidden}
.stepform[data-layout="mobile"] .stepform-track{flex-direction:row;gap:0;transition:transform 0.5s ease-in-out}
.stepform[data-layout="mobile"] .stepform-panel{flex:0 0 100%;padding:0.25rem}
.stepform[data-layout="desktop"] .stepform-track{transform:none!important}
`
