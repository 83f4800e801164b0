// Package jobs provides the scheduled background sweeps of the service.
//
// Jobs are built on github.com/robfig/cron/v3. Each one wraps a sweep
// function that returns how many items it handled; runs never overlap.
//
// # Available Jobs
//
//  1. courier_sweep - offers PENDING_COURIER orders without an outstanding
//     offer again and expires offers whose in-process timer was lost
//  2. prescription_expiry - rejects prescriptions not reviewed in time
//  3. conversation_eviction - drops idle conversations from stores without
//     native expiry and refreshes the active conversations gauge
//  4. dedupe_prune - forgets old webhook message ids kept in memory
//
// # Usage
//
//	manager := jobs.NewJobManager(
//		jobs.NewCourierSweepJob(couriers, 30*time.Second, logger),
//		jobs.NewPrescriptionExpiryJob(prescriptions, time.Minute, logger),
//	)
//	if err := manager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//	defer manager.StopAll()
//
// # Error Handling
//
// A failed run is logged and counted in pharmadelivery_job_runs_total; the
// next tick runs again. A job that fails to start stops the ones already running.
package jobs
