// Package integrationtests runs complete workflows through the headless
// application and checks the events and activity feed they produce.
package integrationtests
