// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package tracing provides OpenTelemetry tracing and Prometheus metrics
// for the MCP server.
//
// The Provider owns the tracer and meter providers. Tool handlers run
// inside spans named tool/<name>; the Proxmox client opens client spans
// around API calls. Metrics are plain promauto counters and histograms
// exposed through MetricsHandler when telemetry.listen is configured.
package tracing
