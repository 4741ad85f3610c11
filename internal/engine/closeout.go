package engine

import (
	"bytes"
	"fmt"
	"os"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/packetgov/kernel/internal/domain"
	kernelerrors "github.com/packetgov/kernel/internal/errors"
)

// RequiredDriftSections are the level-2 headings a closeout_l2
// drift-assessment document must contain (order of appearance in the
// document is not enforced, only presence).
var RequiredDriftSections = []string{
	"Scope Reviewed",
	"Expected vs Delivered",
	"Drift Assessment",
	"Evidence Reviewed",
	"Residual Risks",
	"Immediate Next Actions",
}

// headingTexts parses a markdown document with goldmark and returns the
// text content of every level-2 heading, used to validate a
// drift-assessment document against RequiredDriftSections.
func headingTexts(source []byte) map[string]struct{} {
	reader := text.NewReader(source)
	doc := goldmark.DefaultParser().Parse(reader)

	found := make(map[string]struct{})
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := n.(*ast.Heading)
		if !ok || heading.Level != 2 {
			return ast.WalkContinue, nil
		}
		found[headingPlainText(heading, source)] = struct{}{}
		return ast.WalkContinue, nil
	})
	return found
}

// headingPlainText concatenates the text segments of a heading's inline
// children, since goldmark's ast.Heading carries no Text() accessor of its
// own — only leaf *ast.Text nodes know their byte ranges into source.
func headingPlainText(heading *ast.Heading, source []byte) string {
	var buf bytes.Buffer
	for c := heading.FirstChild(); c != nil; c = c.NextSibling() {
		if textNode, ok := c.(*ast.Text); ok {
			buf.Write(textNode.Segment.Value(source))
		}
	}
	return buf.String()
}

// validateDriftAssessment reads assessmentPath and confirms every heading
// in RequiredDriftSections is present.
func validateDriftAssessment(assessmentPath string) error {
	data, err := os.ReadFile(assessmentPath) //nolint:gosec // path is operator-supplied CLI/HTTP input, not traversal-sensitive in this kernel's trust model
	if err != nil {
		return fmt.Errorf("engine: read drift assessment %s: %w", assessmentPath, kernelerrors.ErrAssessmentNotFound)
	}

	present := headingTexts(data)
	for _, want := range RequiredDriftSections {
		if _, ok := present[want]; !ok {
			return fmt.Errorf("engine: drift assessment missing %q: %w", want, kernelerrors.ErrMissingDriftSection)
		}
	}
	return nil
}

// CloseoutL2 implements closeout_l2(area_id, agent, assessment_path,
// notes): requires every packet in the area to be done and the
// drift-assessment document to carry all required sections. It
// writes a DCL commit against the synthetic packet id "AREA-<area_id>".
func (e *Engine) CloseoutL2(areaID, agent, assessmentPath, notes string) (*Result, error) {
	if _, err := e.areaDef(areaID); err != nil {
		return nil, notFound(err)
	}

	req := domain.TransitionRequest{Action: "closeout_l2", PacketID: areaID, Agent: agent, Notes: notes}
	return e.runMutation(req, "closeout_l2", map[string]any{"area_id": areaID, "assessment_path": assessmentPath}, func(state *domain.State, t *txn) error {
		for _, p := range e.wbs.Packets {
			if p.AreaID != areaID {
				continue
			}
			rt, ok := state.Packets[p.ID]
			if !ok || rt == nil || rt.Status != domain.StatusDone {
				return precondition(fmt.Errorf("engine: area %q: packet %q is not done: %w", areaID, p.ID, kernelerrors.ErrIncompleteArea))
			}
		}

		if err := validateDriftAssessment(assessmentPath); err != nil {
			return precondition(err)
		}

		if state.AreaCloseouts == nil {
			state.AreaCloseouts = make(map[string]*domain.AreaCloseout)
		}
		closeout := &domain.AreaCloseout{
			AreaID: areaID, Agent: agent, AssessmentPath: assessmentPath,
			Notes: notes, ClosedAt: e.now(),
		}
		state.AreaCloseouts[areaID] = closeout

		if err := t.appendEvent(state.Log, state.LogIntegrityMode, "AREA-"+areaID, "area_closed", agent, notes, e.now()); err != nil {
			return err
		}
		t.areas = append(t.areas, areaDelta{AreaID: areaID, Pre: map[string]any{}, Post: closeout})
		return nil
	})
}
