// Package report renders a finalised SequenceResult to a byte string for
// writing under the run's output directory.
package report

import "github.com/aoyoqui/benderr/pkg/types"

// Formatter renders a SequenceResult and names the file extension its
// output should be written under.
type Formatter interface {
	Format(result *types.SequenceResult) ([]byte, error)
	Ext() string
}
