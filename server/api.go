package server

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"go-fretboard/fretboard"
	"go-fretboard/overlay"
	"go-fretboard/playback"
	"go-fretboard/theory"
)

func init() {
	validate.RegisterValidation("note", func(fl validator.FieldLevel) bool {
		return theory.IsValidNote(fl.Field().String())
	})
	validate.RegisterValidation("scaletype", func(fl validator.FieldLevel) bool {
		_, ok := theory.Lookup(theory.ScaleType(fl.Field().String()))
		return ok
	})
	validate.RegisterValidation("chordsymbol", func(fl validator.FieldLevel) bool {
		_, ok := theory.ParseChordSymbol(fl.Field().String())
		return ok
	})
	validate.RegisterValidation("tuning", func(fl validator.FieldLevel) bool {
		_, err := fretboard.ParseTuning(fl.Field().String())
		return err == nil
	})
}

// ScaleQuery is GET /api/scale
type ScaleQuery struct {
	Root       string `query:"root" validate:"required,note"`
	Type       string `query:"type" validate:"required,scaletype"`
	Convention string `query:"convention" validate:"omitempty,oneof=sharp flat mixed-minor double-sharp double-flat"`
}

// ScaleResponse is a spelled scale with its chords
type ScaleResponse struct {
	Root           string              `json:"root"`
	Type           theory.ScaleType    `json:"type"`
	Name           string              `json:"name"`
	Category       theory.Category     `json:"category"`
	Convention     string              `json:"convention"`
	Notes          []string            `json:"notes"`
	Intervals      []string            `json:"intervals"`
	Chords         *theory.ChordSet    `json:"chords,omitempty"`
	Characteristic []theory.ChordGroup `json:"characteristic,omitempty"`
	Modes          []string            `json:"modes,omitempty"`
}

// ChordQuery is GET /api/chords
type ChordQuery struct {
	Symbol     string `query:"symbol" validate:"required,chordsymbol"`
	Convention string `query:"convention" validate:"omitempty,oneof=sharp flat mixed-minor double-sharp double-flat"`
}

// ChordResponse spells a chord symbol
type ChordResponse struct {
	Symbol    string   `json:"symbol"`
	Root      string   `json:"root"`
	Quality   string   `json:"quality"`
	Bass      string   `json:"bass,omitempty"`
	Notes     []string `json:"notes"`
	Intervals []string `json:"intervals"`
}

// FretboardQuery is GET /api/fretboard
type FretboardQuery struct {
	Tuning         string `query:"tuning" validate:"omitempty,tuning"`
	Start          int    `query:"start" validate:"gte=0,lte=24"`
	End            int    `query:"end" validate:"gte=0,lte=24,gtefield=Start"`
	Bar            int    `query:"bar" validate:"gte=0"`
	Root           string `query:"root" validate:"omitempty,note"`
	Scale          string `query:"scale" validate:"omitempty,scaletype"`
	Chord          string `query:"chord" validate:"omitempty,chordsymbol"`
	Labels         string `query:"labels" validate:"omitempty,oneof=notes intervals blank"`
	IntervalColors bool   `query:"intervalColors"`
	Extensions     bool   `query:"extensions"`
}

// FretboardResponse is a composited frame plus the tuning it was built on
type FretboardResponse struct {
	Tuning fretboard.Tuning `json:"tuning"`
	Window fretboard.Window `json:"window"`
	Frame  overlay.Frame    `json:"frame"`
}

// SyncStatus reports who is in a sync group
type SyncStatus struct {
	SyncID  string `json:"syncId"`
	Clients int    `json:"clients"`
	Members int    `json:"members"`
}

type catalogEntry struct {
	Type     theory.ScaleType `json:"type"`
	Name     string           `json:"name"`
	Category theory.Category  `json:"category"`
	Mode     int              `json:"mode,omitempty"`
	Steps    []int            `json:"steps"`
}

// Scales handles GET /api/scales
func (s *Server) Scales(c *fiber.Ctx) error {
	defs := theory.Catalog()
	out := make([]catalogEntry, len(defs))
	for i, d := range defs {
		out[i] = catalogEntry{Type: d.Type, Name: d.Name, Category: d.Category, Mode: d.Mode, Steps: d.Steps}
	}
	return ok(c, out)
}

// Scale handles GET /api/scale
func (s *Server) Scale(c *fiber.Ctx) error {
	var q ScaleQuery
	if err := c.QueryParser(&q); err != nil {
		return validationError(c, "Invalid query", nil)
	}
	if err := validate.Struct(&q); err != nil {
		return validationError(c, "Validation failed", formatValidationErrors(err))
	}

	def, _ := theory.Lookup(theory.ScaleType(q.Type))
	var scale theory.Scale
	if q.Convention == "" {
		scale = theory.ResolveScaleType(q.Root, def.Type)
	} else {
		conv := theory.ResolveConvention(q.Root, def.Type, theory.ParseConvention(q.Convention))
		scale = theory.ResolveScale(q.Root, def.Steps, def.Type, conv, def.Category)
	}
	if scale.Empty() {
		return errorJSON(c, fiber.StatusUnprocessableEntity, CodeValidationError, "Scale not available", nil)
	}

	resp := ScaleResponse{
		Root:       scale.Root,
		Type:       def.Type,
		Name:       def.Name,
		Category:   def.Category,
		Convention: scale.Convention.String(),
		Notes:      scale.Notes,
		Intervals:  scale.Intervals,
	}
	if theory.ShouldDisplayChords(def.Type, len(scale.Notes), def.Category) {
		chords := theory.BuildChords(scale, def.Type, def.Category)
		resp.Chords = &chords
	}
	resp.Characteristic = theory.CharacteristicChords(scale, def.Type)
	if def.Mode > 0 {
		for _, m := range theory.ModesOf(def.Category) {
			resp.Modes = append(resp.Modes, string(m.Type))
		}
	}
	return ok(c, resp)
}

// Chords handles GET /api/chords
func (s *Server) Chords(c *fiber.Ctx) error {
	var q ChordQuery
	if err := c.QueryParser(&q); err != nil {
		return validationError(c, "Invalid query", nil)
	}
	if err := validate.Struct(&q); err != nil {
		return validationError(c, "Validation failed", formatValidationErrors(err))
	}

	sym, _ := theory.ParseChordSymbol(q.Symbol)
	conv := theory.DefaultConvention(sym.Root, theory.ScaleMajor)
	if q.Convention != "" {
		conv = theory.ParseConvention(q.Convention)
	}
	resp := ChordResponse{Symbol: sym.Text, Root: sym.Root, Quality: sym.Quality, Bass: sym.Bass}
	rootPC := theory.NoteToPitchClass(sym.Root)
	seen := map[theory.PitchClass]bool{}
	for _, pc := range sym.PitchClasses() {
		if seen[pc] {
			continue
		}
		seen[pc] = true
		name := theory.PitchClassToName(pc, conv)
		if pc == rootPC {
			name = sym.Root
		}
		resp.Notes = append(resp.Notes, name)
		resp.Intervals = append(resp.Intervals, theory.IntervalLabel(int(pc)-int(rootPC)))
	}
	return ok(c, resp)
}

// Fretboard handles GET /api/fretboard
func (s *Server) Fretboard(c *fiber.Ctx) error {
	q := FretboardQuery{
		Start:          s.window.Start,
		End:            s.window.End,
		Labels:         s.options.Labels.String(),
		IntervalColors: s.options.IntervalColors,
		Extensions:     s.options.Extensions,
	}
	if err := c.QueryParser(&q); err != nil {
		return validationError(c, "Invalid query", nil)
	}
	if err := validate.Struct(&q); err != nil {
		return validationError(c, "Validation failed", formatValidationErrors(err))
	}

	tuning := s.tuning
	if q.Tuning != "" {
		tuning, _ = fretboard.ParseTuning(q.Tuning)
	}

	in := overlay.Input{
		Tuning:      tuning,
		StringCount: tuning.StringCount(),
		Window:      fretboard.Window{Start: q.Start, End: q.End}.Clamp(),
		Position:    overlay.Position{Bar: q.Bar},
		Options:     s.options,
	}
	in.Options.Labels = overlay.ParseLabelMode(q.Labels)
	in.Options.IntervalColors = q.IntervalColors
	in.Options.Extensions = q.Extensions

	scaleType := theory.ScaleMajor
	if q.Scale != "" {
		def, _ := theory.Lookup(theory.ScaleType(q.Scale))
		scaleType = def.Type
	}

	root := q.Root
	if q.Chord != "" {
		sym, _ := theory.ParseChordSymbol(q.Chord)
		in.Root = overlay.FromSymbol(sym, overlay.SourceBar)
		in.Chords = []overlay.ChordOverlay{{Name: sym.Text, Symbol: sym.Text, Labels: in.Options.Labels}}
		if root == "" {
			root = sym.Root
		}
	}
	if root != "" {
		if !in.Root.Valid() {
			in.Root = overlay.RootInfo{Root: theory.NormalizeName(root), Source: overlay.SourceBar}
		}
		in.Options.KeyPreference = theory.DefaultConvention(root, scaleType)
		if q.Scale != "" {
			def, _ := theory.Lookup(scaleType)
			in.Scales = []overlay.ScaleOverlay{{Name: theory.NormalizeName(root) + " " + def.Name, Root: root, Type: scaleType, Labels: in.Options.Labels}}
		}
	}

	return ok(c, FretboardResponse{Tuning: tuning, Window: in.Window, Frame: overlay.Compose(in)})
}

// SyncStatus handles GET /api/sync/:id
func (s *Server) SyncStatus(c *fiber.Ctx) error {
	id := c.Params("id")
	return ok(c, SyncStatus{SyncID: id, Clients: s.Hub.Clients(id), Members: s.Hub.Bus().Members(id)})
}

// SyncCommand handles POST /api/sync/:id, publishing one command to the
// group as if a peer had sent it
func (s *Server) SyncCommand(c *fiber.Ctx) error {
	frame, err := DecodeFrame(c.Body())
	if err != nil {
		return validationError(c, "Invalid command", formatValidationErrors(err))
	}
	cmd, isCmd := frame.Command()
	if !isCmd {
		return validationError(c, "Not a playback command", nil)
	}
	id := c.Params("id")
	s.Hub.Bus().Publish(playback.Message{SyncID: id, Origin: "http", Command: cmd})
	return c.Status(fiber.StatusAccepted).JSON(SyncStatus{SyncID: id, Clients: s.Hub.Clients(id), Members: s.Hub.Bus().Members(id)})
}
