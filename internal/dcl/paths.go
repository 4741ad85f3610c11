package dcl

import (
	"fmt"
	"path/filepath"

	"github.com/packetgov/kernel/internal/constants"
)

// layout resolves the on-disk locations for a DCL installation rooted at
// root.
type layout struct {
	root string
}

func (l layout) packetsRoot() string {
	return filepath.Join(l.root, constants.PacketsDirName)
}

func (l layout) packetDir(packetID string) string {
	return filepath.Join(l.packetsRoot(), packetID)
}

func (l layout) headPath(packetID string) string {
	return filepath.Join(l.packetDir(packetID), constants.HeadFileName)
}

func (l layout) journalPath(packetID string) string {
	return filepath.Join(l.packetDir(packetID), constants.JournalFileName)
}

func (l layout) commitsDir(packetID string) string {
	return filepath.Join(l.packetDir(packetID), constants.CommitsDirName)
}

// commitWidth is the zero-padded width for commit sequence numbers,
// sufficient for >=10^6 commits per packet.
const commitWidth = 6

func (l layout) commitPath(packetID string, seq int) string {
	return filepath.Join(l.commitsDir(packetID), fmt.Sprintf("%0*d.json", commitWidth, seq))
}

func (l layout) checkpointsDir() string {
	return filepath.Join(l.root, constants.CheckpointsDirName)
}

func (l layout) checkpointPath(seq int) string {
	return filepath.Join(l.checkpointsDir(), fmt.Sprintf("%0*d.json", commitWidth, seq))
}

func (l layout) constitutionPath() string {
	return filepath.Join(l.root, constants.ConstitutionFileName)
}

func (l layout) configLockPath() string {
	return filepath.Join(l.root, constants.DCLConfigFileName)
}
