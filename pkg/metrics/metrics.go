/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package metrics

import (
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"jinr.ru/greenlab/go-dmm/pkg/layers"
	"jinr.ru/greenlab/go-dmm/pkg/session"
)

const Namespace = "dmm"

var (
	registerOnce sync.Once

	framesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "frames_total",
			Help:      "Frames taken from the stream by payload kind.",
		},
		[]string{"kind"},
	)
	checksumMismatchTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "checksum_mismatch_total",
			Help:      "Frames whose checksum disagrees with the byte sum.",
		},
	)
	resyncBytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "resync_bytes_total",
			Help:      "Bytes discarded while seeking a frame signature.",
		},
	)
	decodeErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "decode_errors_total",
			Help:      "Frames whose payload could not be decoded.",
		},
		[]string{"reason"},
	)
	multiFrameBatchesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "multi_frame_batches_total",
			Help:      "Reads that delivered more than one frame, making timestamps approximate.",
		},
	)
	bytesReadTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "bytes_read_total",
			Help:      "Bytes read from the transport.",
		},
	)
)

func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(framesTotal, checksumMismatchTotal, resyncBytesTotal,
			decodeErrorsTotal, multiFrameBatchesTotal, bytesReadTotal)
	})
}

// Observe accounts a drained batch.
func Observe(batch session.Batch) {
	Register()
	resyncBytesTotal.Add(float64(batch.Discarded))
	if batch.ImpreciseTiming {
		multiFrameBatchesTotal.Inc()
	}
	for _, r := range batch.Results {
		framesTotal.WithLabelValues(r.Kind.String()).Inc()
		if !r.ChecksumValid {
			checksumMismatchTotal.Inc()
		}
		if r.Err != nil {
			decodeErrorsTotal.WithLabelValues(Reason(r.Err)).Inc()
		}
	}
}

func AddBytesRead(n int) {
	Register()
	bytesReadTotal.Add(float64(n))
}

// Reason maps a payload error to a metric label.
func Reason(err error) string {
	switch {
	case errors.As(err, new(layers.ErrInvalidIndex)):
		return "invalid_index"
	case errors.As(err, new(layers.ErrShortPayload)):
		return "short_payload"
	case errors.As(err, new(layers.ErrUnknownPayloadTag)):
		return "unknown_tag"
	case errors.As(err, new(layers.ErrMalformedIdentification)):
		return "malformed_id"
	}
	return "other"
}
