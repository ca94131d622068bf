package notifier

import (
	"context"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// BatchProcessor получает накопленную пачку тел сообщений
type BatchProcessor interface {
	ProcessBatch(ctx context.Context, bodies [][]byte)
}

// Pump вычитывает доставки брокера и сбивает их в пачки: по размеру
// или по таймеру — что наступит раньше. Ack ставится ПОСЛЕ обработки
// пачки; сам консьюмер никогда не инициирует повторную доставку.
type Pump struct {
	deliveries <-chan amqp.Delivery
	proc       BatchProcessor
	size       int
	interval   time.Duration
	logger     *zap.Logger
}

func NewPump(deliveries <-chan amqp.Delivery, proc BatchProcessor, size int, interval time.Duration, logger *zap.Logger) *Pump {
	if size <= 0 {
		size = 10
	}
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &Pump{
		deliveries: deliveries,
		proc:       proc,
		size:       size,
		interval:   interval,
		logger:     logger.Named("pump"),
	}
}

// Run крутится до закрытия канала доставок или отмены контекста.
// Остаток пачки добивается перед выходом (Drain Pattern).
func (p *Pump) Run(ctx context.Context) {
	batch := make([]amqp.Delivery, 0, p.size)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}

		bodies := make([][]byte, len(batch))
		for i, d := range batch {
			bodies[i] = d.Body
		}
		p.proc.ProcessBatch(ctx, bodies)

		// Подтверждаем только после обработки. Битые сообщения тоже:
		// консьюмер их уже залогировал, возвращать в очередь бессмысленно.
		for _, d := range batch {
			if err := d.Ack(false); err != nil {
				p.logger.Warn("ack failed", zap.Error(err))
			}
		}
		batch = batch[:0]
	}

	p.logger.Info("notifier pump started",
		zap.Int("batch_size", p.size),
		zap.Duration("flush_interval", p.interval),
	)

	for {
		select {
		case <-ctx.Done():
			flush() // Финальный сброс
			p.logger.Info("notifier pump stopping by context")
			return

		case d, ok := <-p.deliveries:
			if !ok {
				flush()
				p.logger.Info("delivery channel closed, pump finished")
				return
			}
			batch = append(batch, d)
			if len(batch) >= p.size {
				flush()
			}

		case <-ticker.C:
			flush()
		}
	}
}
