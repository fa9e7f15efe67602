// Package activitylog synthesizes the activity feed that accompanies a run:
// while a run is active a Generator periodically attributes a progress line
// to one of the running agents and records it in a bounded Feed.
package activitylog
