// Package quillfeed provides the Quillfeed API server.

// This package contains the main application entry point. The actual API
// documentation is organized into subpackages:

// - internal/handlers: HTTP request handlers for all API endpoints
// - internal/models: Data models and database schemas
// - internal/auth: Authentication and token services
// - internal/engagement: Like and repost bookkeeping
// - internal/social: Follow graph and relationship queries
// - internal/threads: Comment threading
// - internal/feed: Global and following feed composition
// - internal/database: Database connection and migrations
// - internal/middleware: HTTP middleware (request IDs, logging, metrics)
// - internal/metrics: Prometheus metric definitions
// - internal/seed: Development and test data seeding

// See the individual package documentation for detailed API reference.
package quillfeed
