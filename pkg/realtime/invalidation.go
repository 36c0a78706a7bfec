package realtime

// Cache keys the frontend keeps warm. An event invalidates whole
// collections rather than individual entries; the next read refetches.
const (
	KeyTickets        = "tickets"
	KeyDashboardStats = "dashboard-stats"
	KeyProjects       = "projects"
	KeySLATemplates   = "sla-templates"
	KeyUsers          = "users"
)

// invalidations maps every server event to the cache keys it makes stale.
// Ticket mutations also touch the dashboard counters; comments render
// inside ticket detail views; project, task, and membership changes all
// land on the projects board.
var invalidations = map[string][]string{
	"ticket:created": {KeyTickets, KeyDashboardStats},
	"ticket:updated": {KeyTickets, KeyDashboardStats},
	"ticket:deleted": {KeyTickets, KeyDashboardStats},

	"comment:created": {KeyTickets},
	"comment:updated": {KeyTickets},
	"comment:deleted": {KeyTickets},

	"project:created": {KeyProjects},
	"project:updated": {KeyProjects},
	"project:deleted": {KeyProjects},
	"task:created":    {KeyProjects},
	"task:updated":    {KeyProjects},
	"task:deleted":    {KeyProjects},
	"member:added":    {KeyProjects},
	"member:removed":  {KeyProjects},

	"sla:created": {KeySLATemplates},
	"sla:updated": {KeySLATemplates},
	"sla:deleted": {KeySLATemplates},

	"user:updated": {KeyUsers},
}

// InvalidatedKeys returns the cache keys an event makes stale, or nil for
// events this client version does not know about.
func InvalidatedKeys(event string) []string {
	return invalidations[event]
}

// Cache is the consumer-side cache the subscriber keeps coherent.
type Cache interface {
	Invalidate(keys ...string)
}
