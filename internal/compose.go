package internal

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/henrytill/bitcomp-go/internal/schema"
	"github.com/henrytill/bitcomp-go/internal/types"
)

// Compose runs every row through codec. A row starts from its own word, or
// zero, has its field values stored on top, and is decoded again so the
// table shows what was actually kept. Values too wide for their field wrap;
// that is logged but not an error.
func Compose(codec *schema.Codec, rows []types.Row) (*types.Table, error) {
	log := Logger().With(zap.String("schema", codec.Schema().Name))

	table := &types.Table{
		Version: types.ExpectedVersion,
		Schema:  codec.Schema().Name,
		Bits:    codec.Bits(),
		Fields:  codec.Names(),
		Records: make([]types.Record, 0, len(rows)),
	}

	for i, row := range rows {
		var start uint64
		if row.Word != nil {
			start = *row.Word
		}

		for name, v := range row.Values {
			if codec.Wraps(name, v) {
				log.Warn("value wraps",
					zap.Int("record", i),
					zap.String("field", name),
					zap.Uint64("value", v))
			}
		}

		word, err := codec.Encode(start, row.Values)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}

		values, err := codec.Decode(word)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}

		log.Debug("composed",
			zap.Int("record", i),
			zap.String("word", types.FormatWord(word, codec.Bits())))

		table.Records = append(table.Records, types.Record{
			Word:   word,
			Bits:   codec.Bits(),
			Values: values,
		})
	}

	return table, nil
}
