// Package engine reconstructs delimited text files whose logical records were
// broken apart by unescaped line breaks during export.
//
// The reconstruction is a single synchronous pass: physical rows are tokenized
// with encoding/csv in flexible mode, fed through a two-state machine that
// emits, buffers, or discards them against a fixed expected column count, and
// the resulting logical rows are written back out with every field normalized.
//
// Example usage:
//
//	file, _ := os.Open("broken.csv")
//	defer file.Close()
//
//	rows, stats, err := engine.ReconstructRecords(file, engine.Options{
//	    Delimiter:  engine.Comma,
//	    HeaderMode: engine.HasHeaders,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	out, _ := os.Create("repaired.csv")
//	defer out.Close()
//	engine.WriteRecords(out, rows, engine.Comma)
//
//	log.Printf("total=%d fixed=%d removed=%d rate=%.1f%%",
//	    stats.TotalRows, stats.FixedRows, stats.RemovedRows, stats.SuccessRate())
package engine
