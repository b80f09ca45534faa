package reconcile

// Action is the reconciliation step chosen for an item.
type Action string

const (
	// ActionRestore repopulates the item's metadata from its backup.
	ActionRestore Action = "restore"
	// ActionProbe asks the host to probe the item. Gated by the circuit breaker.
	ActionProbe Action = "probe"
	// ActionBackup writes the item's current metadata to its backup.
	ActionBackup Action = "backup"
	// ActionNoOp leaves the item alone.
	ActionNoOp Action = "noop"
)

// State is the observable input of the classifier.
type State struct {
	// HasAV is true when at least one audio or video stream is known.
	HasAV bool `json:"has_av" yaml:"has_av"`
	// BackupExists is true when a usable backup is present.
	BackupExists bool `json:"backup_exists" yaml:"backup_exists"`
	// SavedSubtitleCount is the external subtitle count stored in the backup.
	SavedSubtitleCount int `json:"saved_subtitle_count" yaml:"saved_subtitle_count"`
	// CurrentExternalSubtitleCount is the item's current external subtitle count.
	CurrentExternalSubtitleCount int `json:"current_external_subtitle_count" yaml:"current_external_subtitle_count"`
}

// Decision is the classifier output.
type Decision struct {
	Action Action `json:"action" yaml:"action"`
	// DeleteBackup is set when the backup is stale and must be removed before probing.
	DeleteBackup bool   `json:"delete_backup" yaml:"delete_backup"`
	Reason       string `json:"reason" yaml:"reason"`
}

// Classify maps an item state to an action. It is a pure, total function.
//
//	hasAV  backup  subtitles   action
//	false  true    match       Restore
//	false  true    mismatch    delete backup, Probe
//	true   false   -           Backup
//	false  false   -           Probe
//	true   true    -           NoOp
func Classify(s State) Decision {
	switch {
	case !s.HasAV && s.BackupExists && s.SavedSubtitleCount == s.CurrentExternalSubtitleCount:
		return Decision{Action: ActionRestore, Reason: "metadata missing, backup available"}
	case !s.HasAV && s.BackupExists:
		return Decision{Action: ActionProbe, DeleteBackup: true, Reason: "backup stale: external subtitles changed"}
	case s.HasAV && !s.BackupExists:
		return Decision{Action: ActionBackup, Reason: "probed metadata not yet backed up"}
	case !s.HasAV:
		return Decision{Action: ActionProbe, Reason: "metadata missing, no backup"}
	default:
		return Decision{Action: ActionNoOp, Reason: "healthy and backed up"}
	}
}
