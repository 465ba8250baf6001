package server

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/piwi3910/glasscut/internal/export"
	"github.com/piwi3910/glasscut/internal/model"
)

const (
	contentPDF  = "application/pdf"
	contentXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentPNG  = "image/png"
	contentNC   = "text/plain; charset=utf-8"
)

// render writes a plan rendering under the read lock.
func (s *Server) render(c fiber.Ctx, contentType, filename string, write func(*bytes.Buffer, model.Plan) error) error {
	plan, err := s.lookup(c)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	s.mu.RLock()
	err = write(&buf, *plan)
	s.mu.RUnlock()
	if err != nil {
		if errors.Is(err, export.ErrEmptyPlan) {
			return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
		}
		return err
	}

	c.Set(fiber.HeaderContentType, contentType)
	if filename != "" {
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	}
	return c.Send(buf.Bytes())
}

func (s *Server) reportPDF(c fiber.Ctx) error {
	return s.render(c, contentPDF, "plan.pdf", func(b *bytes.Buffer, p model.Plan) error {
		return export.WritePDF(b, p)
	})
}

func (s *Server) labelsPDF(c fiber.Ctx) error {
	return s.render(c, contentPDF, "labels.pdf", func(b *bytes.Buffer, p model.Plan) error {
		return export.WriteLabels(b, p)
	})
}

func (s *Server) cutListXLSX(c fiber.Ctx) error {
	return s.render(c, contentXLSX, "cutlist.xlsx", func(b *bytes.Buffer, p model.Plan) error {
		return export.WriteCutList(b, p)
	})
}

// piece picks the :piece route parameter out of the plan.
func piece(c fiber.Ctx, p model.Plan) (model.Piece, error) {
	idx, err := intParam(c, "piece")
	if err != nil {
		return model.Piece{}, err
	}
	if idx < 1 || idx > len(p.Pieces) {
		return model.Piece{}, fmt.Errorf("piece %d: %w", idx, model.ErrPieceNotFound)
	}
	return p.Pieces[idx-1], nil
}

func (s *Server) piecePreview(c fiber.Ctx) error {
	size := 800
	if v := c.Query("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 4096 {
			return fiber.NewError(fiber.StatusBadRequest, "size must be between 1 and 4096")
		}
		size = n
	}
	return s.render(c, contentPNG, "", func(b *bytes.Buffer, p model.Plan) error {
		pc, err := piece(c, p)
		if err != nil {
			return err
		}
		return export.RenderPiecePNG(b, pc, size)
	})
}

func (s *Server) pieceProgram(c fiber.Ctx) error {
	return s.render(c, contentNC, "", func(b *bytes.Buffer, p model.Plan) error {
		pc, err := piece(c, p)
		if err != nil {
			return err
		}
		b.WriteString(s.generator.GeneratePiece(pc))
		return nil
	})
}
