package model

// IngestionOutcome reports the result of ingesting a single paper.
// A batch ingestion returns one outcome per input paper, in input order.
type IngestionOutcome struct {
	ArxivID      string `json:"arxiv_id"`
	ChunksStored int    `json:"chunks_stored"`
	Err          error  `json:"-"`
}

// Failed reports whether the paper failed to ingest
func (o IngestionOutcome) Failed() bool {
	return o.Err != nil
}
