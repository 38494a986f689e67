package dataset

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/sells-group/sitesales/internal/model"
)

// Decoder returns the text decoder for a charset name. "cp949" and "euc-kr"
// map to Korean EUC-KR (a CP949 superset in x/text); empty and "utf-8" strip
// an optional byte-order mark.
func Decoder(charset string) (*encoding.Decoder, error) {
	switch strings.ToLower(strings.TrimSpace(charset)) {
	case "", "utf-8", "utf8", "utf-8-sig":
		return unicode.UTF8.NewDecoder(), nil
	case "cp949", "euc-kr", "euckr", "ms949":
		return korean.EUCKR.NewDecoder(), nil
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: unsupported charset %q", charset)
	}
	return enc.NewDecoder(), nil
}

// ReadCSV decodes district rows from r. Columns are matched by their
// Korean header names; empty cells become nil attributes and unknown
// columns are ignored.
func ReadCSV(ctx context.Context, r io.Reader, charset string) ([]model.DistrictRecord, error) {
	dec, err := Decoder(charset)
	if err != nil {
		return nil, err
	}
	text := transform.NewReader(r, unicode.BOMOverride(dec))

	cr := csv.NewReader(text)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	cd, err := csvutil.NewDecoder(cr)
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, eris.Wrap(err, "dataset: read csv header")
	}

	var rows []model.DistrictRecord
	for {
		if len(rows)%1000 == 0 && ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "dataset: csv cancelled")
		}
		var rec model.DistrictRecord
		if err := cd.Decode(&rec); err != nil {
			if err == io.EOF {
				break
			}
			return nil, eris.Wrapf(err, "dataset: decode csv row %d", len(rows)+1)
		}
		rows = append(rows, rec)
	}

	if missing := missingColumns(cd.Header()); len(missing) > 0 {
		zap.L().Warn("dataset: csv lacks columns, values imputed as missing",
			zap.Strings("columns", missing))
	}
	return rows, nil
}

// LoadCSVFile reads a district CSV from disk.
func LoadCSVFile(ctx context.Context, path, charset string) ([]model.DistrictRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	rows, err := ReadCSV(ctx, f, charset)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: load %s", path)
	}
	return rows, nil
}

// WriteCSV encodes rows as UTF-8 CSV using the same Korean headers ReadCSV
// understands.
func WriteCSV(w io.Writer, rows []model.DistrictRecord) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	if len(rows) == 0 {
		if err := enc.EncodeHeader(model.DistrictRecord{}); err != nil {
			return eris.Wrap(err, "dataset: write csv header")
		}
	}
	for i := range rows {
		if err := enc.Encode(rows[i]); err != nil {
			return eris.Wrapf(err, "dataset: encode csv row %d", i+1)
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "dataset: flush csv")
}

func missingColumns(header []string) []string {
	have := make(map[string]bool, len(header))
	for _, h := range header {
		have[h] = true
	}
	want, err := csvutil.Header(model.DistrictRecord{}, "csv")
	if err != nil {
		return nil
	}
	var missing []string
	for _, h := range want {
		if !have[h] {
			missing = append(missing, h)
		}
	}
	return missing
}
