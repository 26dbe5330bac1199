package pipeline

import (
	"os"

	parquetbuffer "github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"
)

type conditionedParquetRow struct {
	Index        int64   `parquet:"name=index, type=INT64"`
	ElapsedS     float64 `parquet:"name=elapsed_s, type=DOUBLE"`
	RawN         float64 `parquet:"name=raw_n, type=DOUBLE"`
	ConditionedN float64 `parquet:"name=conditioned_n, type=DOUBLE"`
	LeftN        float64 `parquet:"name=left_n, type=DOUBLE"`
	RightN       float64 `parquet:"name=right_n, type=DOUBLE"`
	Phase        string  `parquet:"name=phase, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
}

func marshalConditionedParquet(rows []ConditionedSample) ([]byte, error) {
	fw := parquetbuffer.NewBufferFile()
	pw, err := writer.NewParquetWriter(fw, new(conditionedParquetRow), 4)
	if err != nil {
		return nil, err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	for _, r := range rows {
		row := conditionedParquetRow{
			Index:        r.Index,
			ElapsedS:     r.ElapsedS,
			RawN:         r.RawN,
			ConditionedN: r.ConditionedN,
			LeftN:        r.LeftN,
			RightN:       r.RightN,
			Phase:        r.Phase,
		}
		if err := pw.Write(row); err != nil {
			_ = pw.WriteStop()
			return nil, err
		}
	}
	if err := pw.WriteStop(); err != nil {
		return nil, err
	}
	if err := fw.Close(); err != nil {
		return nil, err
	}
	return append([]byte(nil), fw.Bytes()...), nil
}

func writeConditionedParquet(path string, rows []ConditionedSample) error {
	data, err := marshalConditionedParquet(rows)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
