// Package api implements the HTTP surface of the automation service: task
// submission, status queries, cooperative cancellation, and the admin pool
// view. Handlers translate between HTTP and the task queue / session pool;
// they hold no business logic of their own.
package api
