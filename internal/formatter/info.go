package formatter

import (
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/henrytill/bitcomp-go/internal/schema"
	"github.com/henrytill/bitcomp-go/internal/types"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// WriteInfo prints how much of the word is in use, then one row per field
// with its width, shift and mask. Table cells are not digit-grouped.
func WriteInfo(w io.Writer, codec *schema.Codec) error {
	p := message.NewPrinter(language.English)
	s := codec.Schema()

	p.Fprintf(w, "schema: %s\n", s.Name)
	p.Fprintf(w, "version: %s\n", s.Version)
	p.Fprintf(w, "word: %d bits, %d used, %d free\n", codec.Bits(), codec.UsedBits(), codec.Bits()-codec.UsedBits())
	if used := codec.UsedBits(); used < 64 {
		p.Fprintf(w, "distinct words: 2^%d (%d)\n", used, uint64(1)<<used)
	} else {
		p.Fprintf(w, "distinct words: 2^%d\n", used)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "name", "bits", "shift", "max", "mask", "description")
	for _, f := range codec.Fields() {
		t.Row(
			strconv.Itoa(f.Index),
			f.Name,
			strconv.Itoa(f.Bits),
			strconv.FormatUint(uint64(f.Shift), 10),
			strconv.FormatUint(f.Max(), 10),
			types.FormatWord(f.Mask, codec.Bits()),
			f.Description,
		)
	}

	_, err := io.WriteString(w, t.String()+"\n")
	return err
}
