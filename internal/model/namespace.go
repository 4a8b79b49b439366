package model

type NamespaceKind string

const (
	NamespaceKindProcessor NamespaceKind = "processor"
	NamespaceKindGateway   NamespaceKind = "gateway"
	NamespaceKindHardware  NamespaceKind = "hardware"
	NamespaceKindSales     NamespaceKind = "sales"
	NamespaceKindCustom    NamespaceKind = "custom"
)

type Namespace struct {
	ID       int64         `json:"id"`
	OwnerID  string        `json:"owner_id"`
	Name     string        `json:"name"`
	Kind     NamespaceKind `json:"kind"`
	Priority int           `json:"priority"`
	Ctime    int64         `json:"ctime"`
}
