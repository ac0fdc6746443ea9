package repositories

// Snapshot kinds, one persisted collection per entity type
const (
	KindProducts         = "products"
	KindProcesses        = "processes"
	KindEquipment        = "equipment"
	KindOperatorCapacity = "operator_capacity"
)

// SnapshotStore persists whole entity collections keyed by kind.
// Load reports found=false when nothing was saved for the kind yet.
type SnapshotStore interface {
	Load(kind string, out any) (found bool, err error)
	Save(kind string, records any) error
}
