package dcl

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"os"
	"path"

	"github.com/packetgov/kernel/internal/constants"
	"github.com/packetgov/kernel/internal/domain"
	"github.com/packetgov/kernel/internal/lock"
)

// ExportProofBundle writes packetID's full commit sequence, HEAD, and the
// constitution document to a zip archive at outPath. The bundle is
// self-verifying: an independent reader can recompute every hash and chain
// link from its contents alone with no access to the live ledger.
//
// archive/zip is the standard library's container format and needs no
// third-party archiver; no example repo in this kernel's lineage ships one
// either (see DESIGN.md).
func (l *Ledger) ExportProofBundle(packetID, outPath string) error {
	head, err := l.LoadHead(packetID)
	if err != nil {
		return err
	}

	f, err := os.Create(outPath) //nolint:gosec // outPath is caller-supplied, same trust level as any CLI output path
	if err != nil {
		return fmt.Errorf("dcl: create proof bundle: %w", err)
	}
	defer func() { _ = f.Close() }()

	zw := zip.NewWriter(f)

	for seq := 1; seq <= head.Seq; seq++ {
		var commit domain.Commit
		if err := lock.ReadJSON(l.layout.commitPath(packetID, seq), &commit); err != nil {
			_ = zw.Close()
			return fmt.Errorf("dcl: read commit %d for export: %w", seq, err)
		}
		if err := writeJSONEntry(zw, path.Join("commits", fmt.Sprintf("%0*d.json", commitWidth, seq)), commit); err != nil {
			_ = zw.Close()
			return err
		}
	}

	if err := writeJSONEntry(zw, "HEAD", head); err != nil {
		_ = zw.Close()
		return err
	}

	if err := l.writeConstitutionEntry(zw); err != nil {
		_ = zw.Close()
		return err
	}

	return zw.Close()
}

func (l *Ledger) writeConstitutionEntry(zw *zip.Writer) error {
	if l.constitutionPath == "" {
		return nil
	}
	data, err := os.ReadFile(l.constitutionPath) //nolint:gosec // kernel-configured path
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("dcl: read constitution for export: %w", err)
	}
	if int64(len(data)) > constants.MaxProofBundleHashBytes {
		data = data[:constants.MaxProofBundleHashBytes]
	}
	w, err := zw.Create(constants.ConstitutionFileName)
	if err != nil {
		return fmt.Errorf("dcl: create constitution entry: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("dcl: write constitution entry: %w", err)
	}
	return nil
}

func writeJSONEntry(zw *zip.Writer, name string, payload any) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("dcl: create entry %s: %w", name, err)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		return fmt.Errorf("dcl: encode entry %s: %w", name, err)
	}
	return nil
}
