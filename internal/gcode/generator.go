package gcode

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/piwi3910/glasscut/internal/model"
)

// Settings controls the scoring head.
type Settings struct {
	Profile        string  `json:"profile"`
	FeedRate       float64 `json:"feed_rate"`   // mm/min while scoring
	SafeZ          float64 `json:"safe_z"`      // travel height
	ScoreDepth     float64 `json:"score_depth"` // head depth for Z controlled profiles
	ShelfTolerance int     `json:"shelf_tolerance"`
}

// DefaultSettings returns settings for a typical float glass table.
func DefaultSettings() Settings {
	return Settings{
		Profile:        "Generic",
		FeedRate:       6000,
		SafeZ:          5,
		ScoreDepth:     0.2,
		ShelfTolerance: model.DefaultPlanSettings().ShelfTolerance,
	}
}

// Generator produces scoring programs from packed pieces.
type Generator struct {
	Settings Settings
	profile  Profile
}

// New returns a generator for the named profile; custom profiles are
// searched after the built-in ones.
func New(settings Settings, custom ...Profile) *Generator {
	return &Generator{
		Settings: settings,
		profile:  GetProfile(settings.Profile, custom...),
	}
}

// Profile returns the dialect in use.
func (g *Generator) Profile() Profile {
	return g.profile
}

// GeneratePiece produces the program for one piece.
func (g *Generator) GeneratePiece(piece model.Piece) string {
	var b strings.Builder

	lines := ScoreLines(piece, g.Settings.ShelfTolerance)
	g.writeHeader(&b, piece, lines)
	for i, l := range lines {
		g.writeLine(&b, piece, l, i+1)
	}
	g.writeFooter(&b)
	return b.String()
}

// GenerateAll produces one program per piece, in plan order.
func (g *Generator) GenerateAll(plan model.Plan) []string {
	var codes []string
	for _, p := range plan.Pieces {
		codes = append(codes, g.GeneratePiece(p))
	}
	return codes
}

// ExportPlan writes piece-NN.nc files into dir and returns their paths.
func (g *Generator) ExportPlan(dir string, plan model.Plan) ([]string, error) {
	var paths []string
	for _, p := range plan.Pieces {
		path := filepath.Join(dir, fmt.Sprintf("piece-%02d.nc", p.Index))
		if err := os.WriteFile(path, []byte(g.GeneratePiece(p)), 0644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func (g *Generator) writeHeader(b *strings.Builder, piece model.Piece, lines []ScoreLine) {
	p := g.profile

	source := piece.Label
	if source == "" {
		source = piece.SourceID
	}
	total := 0
	for _, l := range lines {
		total += l.Length()
	}

	b.WriteString(g.comment(fmt.Sprintf("GlassCut scoring program, piece %d (%s %s)", piece.Index, piece.Kind, source)))
	b.WriteString(g.comment(fmt.Sprintf("Stock: %d x %d mm, material %s", piece.Width, piece.Height, piece.MaterialID)))
	b.WriteString(g.comment(fmt.Sprintf("Cuts: %d, score lines: %d, score length: %d mm", len(piece.Cuts), len(lines), total)))
	b.WriteString(g.comment(fmt.Sprintf("Profile: %s", p.Name)))
	b.WriteString("\n")

	for _, code := range p.StartCode {
		b.WriteString(code + "\n")
	}
	b.WriteString(fmt.Sprintf("%s Z%s\n", p.RapidMove, g.format(g.Settings.SafeZ)))
	b.WriteString(fmt.Sprintf("%s X%s Y%s\n", p.RapidMove, g.format(0), g.format(0)))
	b.WriteString("\n")
}

// writeLine scores one line. Machine Y grows upwards, so piece y is flipped.
func (g *Generator) writeLine(b *strings.Builder, piece model.Piece, l ScoreLine, n int) {
	p := g.profile
	x0, y0 := float64(l.X0), float64(piece.Height-l.Y0)
	x1, y1 := float64(l.X1), float64(piece.Height-l.Y1)

	b.WriteString(g.comment(fmt.Sprintf("Line %d (%s): %d mm", n, l.Kind, l.Length())))
	b.WriteString(fmt.Sprintf("%s X%s Y%s\n", p.RapidMove, g.format(x0), g.format(y0)))
	if p.HeadDown != "" {
		b.WriteString(p.HeadDown + "\n")
	} else {
		b.WriteString(fmt.Sprintf("%s Z%s\n", p.FeedMove, g.format(-g.Settings.ScoreDepth)))
	}
	b.WriteString(fmt.Sprintf("%s X%s Y%s F%s\n", p.FeedMove, g.format(x1), g.format(y1), g.format(g.Settings.FeedRate)))
	if p.HeadUp != "" {
		b.WriteString(p.HeadUp + "\n")
	}
	b.WriteString(fmt.Sprintf("%s Z%s\n", p.RapidMove, g.format(g.Settings.SafeZ)))
}

func (g *Generator) writeFooter(b *strings.Builder) {
	b.WriteString("\n")
	b.WriteString(g.comment("=== Piece complete ==="))
	for _, code := range g.profile.EndCode {
		code = strings.ReplaceAll(code, "[SafeZ]", g.format(g.Settings.SafeZ))
		b.WriteString(code + "\n")
	}
}

// comment wraps text in the profile's comment syntax.
func (g *Generator) comment(text string) string {
	return g.profile.CommentPrefix + " " + text + g.profile.CommentSuffix + "\n"
}

// format formats a coordinate according to the profile's decimal places.
func (g *Generator) format(v float64) string {
	return fmt.Sprintf("%.*f", g.profile.DecimalPlaces, v)
}
