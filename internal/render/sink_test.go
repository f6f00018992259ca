package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type countingSink struct {
	charts, panels int
}

func (c *countingSink) RenderChart(ChartFrame)  { c.charts++ }
func (c *countingSink) RenderPanels(PanelFrame) { c.panels++ }

type alertingSink struct {
	countingSink
	alerts int
}

func (a *alertingSink) RenderAlert(AlertFrame) { a.alerts++ }

func TestMulti_FansOut(t *testing.T) {
	plain := &countingSink{}
	alerting := &alertingSink{}
	m := Multi{plain, alerting, Nop{}}

	m.RenderChart(ChartFrame{})
	m.RenderPanels(PanelFrame{})
	m.RenderPanels(PanelFrame{})
	m.RenderAlert(AlertFrame{Title: "Network error"})

	assert.Equal(t, 1, plain.charts)
	assert.Equal(t, 2, plain.panels)
	assert.Equal(t, 1, alerting.charts)
	assert.Equal(t, 2, alerting.panels)
	assert.Equal(t, 1, alerting.alerts)
}
