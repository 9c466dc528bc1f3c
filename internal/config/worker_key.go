package config

type WorkerKeyStruct struct {
	PersistPredictionsQueue      string
	PersistPredictionsDeadLetter string
}

var WorkerKey = &WorkerKeyStruct{
	PersistPredictionsQueue:      "persist_predictions_queue",
	PersistPredictionsDeadLetter: "persist_predictions_dead_letter",
}
