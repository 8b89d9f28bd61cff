package render

import (
	"html/template"
	"strconv"
)

// pageData feeds the map document template.
type pageData struct {
	Title      string
	ValueLabel string
	NameProp   string
	GeoJSON    string
	Breaks     []float64
	Colors     []string
	Legend     []legendRow
}

var pageTemplate = template.Must(template.New("map").Funcs(template.FuncMap{
	// The embedded FeatureCollection and bin arrays are produced by
	// encoding/json, not user input, so they are safe to inline as script.
	"js": func(s string) template.JS { return template.JS(s) },
	"jsonFloats": func(vs []float64) template.JS {
		out := "["
		for i, v := range vs {
			if i > 0 {
				out += ","
			}
			out += template.JSEscapeString(formatFloat(v))
		}
		return template.JS(out + "]")
	},
	"jsonStrings": func(ss []string) template.JS {
		out := "["
		for i, s := range ss {
			if i > 0 {
				out += ","
			}
			out += `"` + template.JSEscapeString(s) + `"`
		}
		return template.JS(out + "]")
	},
}).Parse(pageHTML))

const pageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<meta name="viewport" content="width=device-width, initial-scale=1">
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<style>
  html, body, #map { height: 100%; margin: 0; }
  .legend {
    background: white; padding: 8px 12px; line-height: 20px;
    font: 13px/20px sans-serif; border-radius: 4px;
    box-shadow: 0 1px 4px rgba(0,0,0,0.3);
  }
  .legend i {
    width: 16px; height: 16px; float: left;
    margin-right: 8px; opacity: 0.8;
  }
  .legend .title { font-weight: bold; margin-bottom: 4px; }
</style>
</head>
<body>
<div id="map"></div>
<script>
var data = {{js .GeoJSON}};
var breaks = {{jsonFloats .Breaks}};
var colors = {{jsonStrings .Colors}};

function color(v) {
  if (v === null || v === undefined) return "#cccccc";
  for (var i = 0; i < breaks.length; i++) {
    if (v <= breaks[i]) return colors[i];
  }
  return colors[colors.length - 1];
}

var map = L.map("map");
L.tileLayer("https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png", {
  attribution: "&copy; OpenStreetMap contributors"
}).addTo(map);

var layer = L.geoJSON(data, {
  style: function (f) {
    return {
      fillColor: color(f.properties.value),
      fillOpacity: 0.7,
      color: "#555",
      weight: 1
    };
  },
  onEachFeature: function (f, l) {
    var name = f.properties.name || f.properties.geoid;
    var value = f.properties.value === null ? "no data" : f.properties.value.toLocaleString("en-US");
    l.bindPopup("<b>" + name + "</b><br>{{.ValueLabel}}: " + value);
  }
}).addTo(map);

map.fitBounds(layer.getBounds());

var legend = L.control({position: "bottomright"});
legend.onAdd = function () {
  var div = L.DomUtil.create("div", "legend");
  div.innerHTML = '<div class="title">{{.ValueLabel}}</div>' +
{{range .Legend}}    '<i style="background:{{.Color}}"></i> {{.Label}}<br>' +
{{end}}    '';
  return div;
};
legend.addTo(map);
</script>
</body>
</html>
`

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
