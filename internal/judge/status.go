package judge

// Status is a Judge0 submission status.
type Status struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
}

// Judge0 status ids.
const (
	StatusIDUnverified        = 0 // local only, never returned by Judge0
	StatusIDInQueue           = 1
	StatusIDProcessing        = 2
	StatusIDAccepted          = 3
	StatusIDWrongAnswer       = 4
	StatusIDTimeLimitExceeded = 5
	StatusIDCompilationError  = 6
	StatusIDRuntimeSIGSEGV    = 7
	StatusIDRuntimeSIGXFSZ    = 8
	StatusIDRuntimeSIGFPE     = 9
	StatusIDRuntimeSIGABRT    = 10
	StatusIDRuntimeNZEC       = 11
	StatusIDRuntimeOther      = 12
	StatusIDInternalError     = 13
	StatusIDExecFormatError   = 14
)

var statusDescriptions = map[int]string{
	StatusIDUnverified:        "Unverified",
	StatusIDInQueue:           "In Queue",
	StatusIDProcessing:        "Processing",
	StatusIDAccepted:          "Accepted",
	StatusIDWrongAnswer:       "Wrong Answer",
	StatusIDTimeLimitExceeded: "Time Limit Exceeded",
	StatusIDCompilationError:  "Compilation Error",
	StatusIDRuntimeSIGSEGV:    "Runtime Error (SIGSEGV)",
	StatusIDRuntimeSIGXFSZ:    "Runtime Error (SIGXFSZ)",
	StatusIDRuntimeSIGFPE:     "Runtime Error (SIGFPE)",
	StatusIDRuntimeSIGABRT:    "Runtime Error (SIGABRT)",
	StatusIDRuntimeNZEC:       "Runtime Error (NZEC)",
	StatusIDRuntimeOther:      "Runtime Error (Other)",
	StatusIDInternalError:     "Internal Error",
	StatusIDExecFormatError:   "Exec Format Error",
}

// StatusUnverified marks a result produced without running the code.
var StatusUnverified = Status{ID: StatusIDUnverified, Description: statusDescriptions[StatusIDUnverified]}

// StatusFromID builds a Status with the canonical description.
func StatusFromID(id int) Status {
	desc, ok := statusDescriptions[id]
	if !ok {
		desc = "Unknown"
	}
	return Status{ID: id, Description: desc}
}

// Terminal reports whether Judge0 is done with the submission.
func (s Status) Terminal() bool { return s.ID >= StatusIDAccepted }

func (s Status) Accepted() bool { return s.ID == StatusIDAccepted }

func (s Status) Unverified() bool { return s.ID == StatusIDUnverified }

func (s Status) RuntimeError() bool {
	return s.ID >= StatusIDRuntimeSIGSEGV && s.ID <= StatusIDRuntimeOther
}

func (s Status) String() string {
	if s.Description != "" {
		return s.Description
	}
	return StatusFromID(s.ID).Description
}
