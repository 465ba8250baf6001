package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/piwi3910/glasscut/internal/model"
)

func TestCollectLabelInfos(t *testing.T) {
	plan := buildTestPlan(t)
	labels := CollectLabelInfos(plan)

	if len(labels) != plan.PlacedCount() {
		t.Fatalf("expected %d labels, got %d", plan.PlacedCount(), len(labels))
	}

	seen := map[string]bool{}
	for _, l := range labels {
		if l.PieceIndex < 1 || l.PieceIndex > len(plan.Pieces) {
			t.Errorf("label %s#%d points at piece %d", l.RequestID, l.Index, l.PieceIndex)
		}
		if l.SourceID != plan.Pieces[l.PieceIndex-1].SourceID {
			t.Errorf("label %s#%d has source %s", l.RequestID, l.Index, l.SourceID)
		}
		key := fmt.Sprintf("%s#%d", l.RequestID, l.Index)
		if seen[key] {
			t.Errorf("duplicate label %s#%d", l.RequestID, l.Index)
		}
		seen[key] = true
	}

	for _, l := range labels {
		if l.RequestID == "req-door" && l.OrderRef != "SO-100" {
			t.Errorf("expected order ref SO-100 on door labels, got %q", l.OrderRef)
		}
	}
}

func TestLabelInfo_JSON(t *testing.T) {
	info := LabelInfo{RequestID: "r1", Index: 2, MaterialID: "float-4mm", Width: 800, Height: 600, PieceIndex: 1, SourceID: "jumbo", X: 0, Y: 600}

	data, err := json.Marshal(info)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back LabelInfo
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back != info {
		t.Errorf("expected %+v, got %+v", info, back)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal raw: %v", err)
	}
	if _, ok := raw["order_ref"]; ok {
		t.Error("empty order ref should be omitted")
	}
}

func TestWriteLabels_MultiplePages(t *testing.T) {
	piece := model.Piece{Index: 1, Kind: model.KindSheet, SourceID: "s", Width: 3000, Height: 3000}
	for i := 0; i < labelsPerPage+5; i++ {
		piece.Cuts = append(piece.Cuts, model.PlacedCut{
			Cut: model.CutInstance{RequestID: "a-very-long-request-identifier", Index: i + 1, Width: 100, Height: 100, OrderRef: "ORDER-WITH-A-LONG-NAME-2026", ClientRef: "Client"},
			X:   (i % 30) * 100,
			Y:   (i / 30) * 100,
		})
	}

	var buf bytes.Buffer
	if err := WriteLabels(&buf, model.Plan{Pieces: []model.Piece{piece}}); err != nil {
		t.Fatalf("WriteLabels returned error: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Error("output does not start with a PDF header")
	}
}

func TestExportLabels_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.pdf")

	if err := ExportLabels(path, buildTestPlan(t)); err != nil {
		t.Fatalf("ExportLabels returned error: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("output file not found: %v", err)
	}
	if info.Size() == 0 {
		t.Error("output file is empty")
	}
}
