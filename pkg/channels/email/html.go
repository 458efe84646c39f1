package email

import (
	"time"

	"github.com/cbroglie/mustache"

	"github.com/kart-io/alerthub/pkg/alert"
	"github.com/kart-io/alerthub/pkg/channels/internal/format"
	"github.com/kart-io/alerthub/pkg/errors"
)

const htmlSource = `<html>
<head>
<style>
body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
.header { background-color: #f8f9fa; padding: 15px; border-left: 4px solid {{color}}; }
.content { padding: 20px; }
.field { margin: 10px 0; }
.label { font-weight: bold; color: #495057; }
.value { margin-left: 10px; font-family: monospace; background: #f8f9fa; padding: 2px 4px; border-radius: 3px; }
.object-section { background: #e7f3ff; border: 1px solid #b8daff; padding: 15px; border-radius: 5px; margin: 15px 0; }
</style>
</head>
<body>
<div class="header">
<h2>{{header}}</h2>
<p>Alert generated at: {{timestamp}}</p>
</div>
<div class="content">
{{#fields}}
{{#nested}}<div class="object-section"><strong>{{label}}:</strong><br><pre>{{value}}</pre></div>{{/nested}}
{{^nested}}<div class="field"><span class="label">{{label}}:</span><span class="value">{{value}}</span></div>{{/nested}}
{{/fields}}
</div>
</body>
</html>
`

var htmlTemplate = func() *mustache.Template {
	t, err := mustache.ParseString(htmlSource)
	if err != nil {
		panic(err)
	}
	return t
}()

func (a *Adapter) html(kind alert.Kind, event alert.Event, entries []format.Entry) (string, error) {
	fields := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		label := e.Label()
		if e.Emoji == "" {
			label = "📝 " + label
		}
		fields = append(fields, map[string]any{
			"label":  label,
			"value":  e.Pretty(),
			"nested": e.Nested,
		})
	}
	out, err := htmlTemplate.Render(map[string]any{
		"color":     kind.HexColor(),
		"header":    format.Header(kind, format.Environment(event, a.common)),
		"timestamp": a.now().UTC().Format(time.RFC3339),
		"fields":    fields,
	})
	if err != nil {
		return "", errors.Wrap(err, errors.ErrMessageEncoding, "failed to render email body").WithDetails(err.Error())
	}
	return out, nil
}
