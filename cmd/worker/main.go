package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campusattend/internal/config"
	"campusattend/internal/mailer"
	"campusattend/internal/metrics"
	"campusattend/internal/queue"
	"campusattend/internal/report"
	"campusattend/internal/store"
)

// Worker consumes guardian-report jobs, builds each student's
// per-subject stats, and mails them to the guardian.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, cfg.ReportQueueKey)
	}

	reports := report.NewService(report.NewRepository(db.Client))
	mail := mailer.New(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom, cfg.MailSkip)

	if !mail.Enabled() {
		log.Println("WARNING: mail delivery not configured (SMTP_HOST / MAIL_SKIP)")
		log.Println("Worker will log report jobs instead of sending them")
	}

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for report jobs...")
	for msg := range messages {
		if msg.Type != queue.TypeGuardianReport {
			continue
		}

		job, err := queue.DecodeReportJob(msg.Body)
		if err != nil {
			log.Printf("decode report job failed: %v", err)
			continue
		}
		log.Printf("processing report for student %s", job.StudentID)

		student, err := reports.Student(ctx, job.StudentID)
		if err != nil {
			log.Printf("fetch student %s failed: %v", job.StudentID, err)
			continue
		}
		if student.GuardianEmail == nil || *student.GuardianEmail == "" {
			log.Printf("student %s has no guardian email, skipping", job.StudentID)
			continue
		}

		stats, err := reports.StatsForStudent(ctx, job.StudentID)
		if err != nil {
			log.Printf("build stats for %s failed: %v", job.StudentID, err)
			continue
		}

		if !mail.Enabled() {
			log.Printf("mail disabled: would send report for %s to %s (%d subjects)",
				student.Name, *student.GuardianEmail, len(stats))
			continue
		}

		if err := mail.SendGuardianReport(*student.GuardianEmail, student, stats); err != nil {
			log.Printf("send report for %s failed: %v", job.StudentID, err)
			continue
		}
		metrics.ReportsMailed.Inc()
		log.Printf("report for %s mailed to %s", student.Name, *student.GuardianEmail)

		time.Sleep(10 * time.Millisecond) // Small delay between sends
	}

	log.Println("worker stopped")
}
