package driver

import "time"

// Stage называет фазу конвейера vet.
type Stage string

const (
	StageLoad   Stage = "load"
	StageDecode Stage = "decode"
	StageCheck  Stage = "check"
)

// Status описывает состояние файла внутри фазы.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// Event сообщает о прогрессе одного файла. Err заполняется при
// провале load или decode; Elapsed заполняется в финальном событии.
type Event struct {
	File    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink принимает события прогресса.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink пересылает события в канал.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

func emitQueued(sink ProgressSink, files []string) {
	if sink == nil {
		return
	}
	for _, file := range files {
		sink.OnEvent(Event{File: file, Stage: StageLoad, Status: StatusQueued})
	}
}

func emitFile(sink ProgressSink, file string, stage Stage, status Status, err error, elapsed time.Duration) {
	if sink == nil {
		return
	}
	sink.OnEvent(Event{File: file, Stage: stage, Status: status, Err: err, Elapsed: elapsed})
}
