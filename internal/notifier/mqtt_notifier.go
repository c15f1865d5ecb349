package notifier

import (
	"encoding/json"
	"fmt"

	"wisefido-careguard/internal/common/mqtt"
	"wisefido-careguard/internal/models"

	"go.uber.org/zap"
)

// MQTTNotifier 通过 MQTT 发布告警事件
// 主题格式：{topicPrefix}/{tenant_id}，QoS 1
type MQTTNotifier struct {
	client      *mqtt.Client
	topicPrefix string
	qos         byte
	logger      *zap.Logger
}

// NewMQTTNotifier 创建 MQTT 告警通知器
func NewMQTTNotifier(client *mqtt.Client, topicPrefix string, qos byte, logger *zap.Logger) *MQTTNotifier {
	return &MQTTNotifier{
		client:      client,
		topicPrefix: topicPrefix,
		qos:         qos,
		logger:      logger,
	}
}

// Emit 发布单条告警事件
// 实现 workflow.AlertSink 接口
func (n *MQTTNotifier) Emit(event models.AlertEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal alert event: %w", err)
	}

	topic := fmt.Sprintf("%s/%s", n.topicPrefix, event.TenantID)
	if err := n.client.Publish(topic, n.qos, false, payload); err != nil {
		return fmt.Errorf("failed to publish alert event: %w", err)
	}

	n.logger.Info("Alert event published",
		zap.String("topic", topic),
		zap.String("event_id", event.EventID),
		zap.String("case_id", event.CaseID),
		zap.String("level", event.Level),
		zap.String("transition", event.Transition),
	)
	return nil
}
