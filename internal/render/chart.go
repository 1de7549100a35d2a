package render

import (
	"bytes"
	"fmt"
	"image/color"

	"github.com/banshee-data/pointview/internal/scene"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// EchartsAssetsHost serves the echarts and echarts-gl bundles.
const EchartsAssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

// ChartOptions controls the chart page.
type ChartOptions struct {
	Title    string
	Subtitle string
	Width    string // CSS, e.g. "900px"
	Height   string
	// MaxPoints caps the points drawn per cloud; 0 draws everything.
	MaxPoints int
}

// ChartPage renders s as a go-echarts 3D scatter page. Axis ranges come from
// the scene's bounding box; each cloud is one series in its material colour.
func ChartPage(s *scene.Scene, cam *scene.Camera, o ChartOptions) ([]byte, error) {
	if o.Title == "" {
		o.Title = "Point cloud"
	}
	if o.Width == "" {
		o.Width = "900px"
	}
	if o.Height == "" {
		o.Height = "700px"
	}

	subtitle := o.Subtitle
	if subtitle == "" {
		subtitle = fmt.Sprintf("points=%d", s.PointCount())
		if cam != nil {
			subtitle += fmt.Sprintf(" camera=(%.2f, %.2f, %.2f)", cam.Position.X, cam.Position.Y, cam.Position.Z)
		}
	}

	scatter := charts.NewScatter3D()
	global := []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{PageTitle: o.Title, Theme: "dark", Width: o.Width, Height: o.Height, AssetsHost: EchartsAssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: o.Title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithGrid3DOpts(opts.Grid3D{ViewControl: &opts.ViewControl{AutoRotate: opts.Bool(false)}}),
	}
	if box, ok := s.BoundingBox(); ok {
		// Equal padding on every axis keeps a flat cloud visible.
		pad := scene.MaxDim(box) * 0.05
		if pad == 0 {
			pad = 1
		}
		global = append(global,
			charts.WithXAxis3DOpts(opts.XAxis3D{Name: "X", Min: box.Min.X - pad, Max: box.Max.X + pad}),
			charts.WithYAxis3DOpts(opts.YAxis3D{Name: "Y", Min: box.Min.Y - pad, Max: box.Max.Y + pad}),
			charts.WithZAxis3DOpts(opts.ZAxis3D{Name: "Z", Min: box.Min.Z - pad, Max: box.Max.Z + pad}),
		)
	}
	scatter.SetGlobalOptions(global...)

	for _, obj := range s.Objects() {
		stride := 1
		if o.MaxPoints > 0 && len(obj.Points) > o.MaxPoints {
			stride = (len(obj.Points) + o.MaxPoints - 1) / o.MaxPoints
		}
		data := make([]opts.Chart3DData, 0, len(obj.Points)/stride+1)
		for i := 0; i < len(obj.Points); i += stride {
			p := obj.Points[i]
			data = append(data, opts.Chart3DData{Value: []interface{}{p.X, p.Y, p.Z}})
		}
		scatter.AddSeries(obj.Name, data,
			charts.WithItemStyleOpts(opts.ItemStyle{Color: HexColor(obj.Material.Color)}),
		)
	}

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	return buf.Bytes(), nil
}

// HexColor formats c as #rrggbb.
func HexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
