package gctasks

import (
	"context"
	"fmt"
	"time"

	cloudtasks "cloud.google.com/go/cloudtasks/apiv2"
	"cloud.google.com/go/cloudtasks/apiv2/cloudtaskspb"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
	"google.golang.org/protobuf/types/known/timestamppb"
)

type Client interface {
	CreateTask(ctx context.Context, queueID string, request Request) error
	DeferCreateTaskInTime(ctx context.Context, queueID string, request Request, schedule time.Time) error
	Close() error
}

type Request struct {
	// Name makes the task idempotent on the queue when set.
	Name   string
	URL    string
	Method cloudtaskspb.HttpMethod
	Header map[string]string
	Body   []byte
}

type tasksClient struct {
	projectID  string
	locationID string
	logger     *logrus.Logger
	client     *cloudtasks.Client
}

// NewGCTasks returns nil when the client cannot be created. Callers treat a nil Client as disabled.
func NewGCTasks(logger *logrus.Logger, projectID, locationID string, credsJSON []byte) Client {
	c, err := cloudtasks.NewClient(context.Background(), option.WithCredentialsJSON(credsJSON))
	if err != nil {
		logger.WithField("object", "gctasks").Error(err)
		return nil
	}

	return &tasksClient{
		logger:     logger,
		client:     c,
		projectID:  projectID,
		locationID: locationID,
	}
}

func (tc *tasksClient) Close() error {
	return tc.client.Close()
}

func (tc *tasksClient) queuePath(queueID string) string {
	return fmt.Sprintf("projects/%s/locations/%s/queues/%s", tc.projectID, tc.locationID, queueID)
}

func buildTask(queuePath string, request Request, schedule *time.Time) *cloudtaskspb.Task {
	task := &cloudtaskspb.Task{
		MessageType: &cloudtaskspb.Task_HttpRequest{
			HttpRequest: &cloudtaskspb.HttpRequest{
				Url:        request.URL,
				HttpMethod: request.Method,
				Headers:    request.Header,
				Body:       request.Body,
			},
		},
	}

	if request.Name != "" {
		task.Name = fmt.Sprintf("%s/tasks/%s", queuePath, request.Name)
	}

	if schedule != nil {
		task.ScheduleTime = timestamppb.New(schedule.Truncate(time.Second))
	}

	return task
}

func (tc *tasksClient) create(ctx context.Context, queueID string, task *cloudtaskspb.Task) error {
	queuePath := tc.queuePath(queueID)

	_, err := tc.client.CreateTask(ctx, &cloudtaskspb.CreateTaskRequest{
		Parent: queuePath,
		Task:   task,
	})
	if err != nil {
		tc.logger.WithContext(ctx).WithFields(logrus.Fields{
			"object":    "gctasks",
			"queueId":   queueID,
			"queuePath": queuePath,
		}).Error(err)
		return err
	}

	return nil
}

// CreateTask implements Client.
func (tc *tasksClient) CreateTask(ctx context.Context, queueID string, request Request) error {
	return tc.create(ctx, queueID, buildTask(tc.queuePath(queueID), request, nil))
}

// DeferCreateTaskInTime implements Client.
func (tc *tasksClient) DeferCreateTaskInTime(ctx context.Context, queueID string, request Request, schedule time.Time) error {
	return tc.create(ctx, queueID, buildTask(tc.queuePath(queueID), request, &schedule))
}
