package config

type WorkerKeyStruct struct {
	MatchAttemptsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	MatchAttemptsQueue: "persist_match_attempts_queue",
}
