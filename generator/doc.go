// Copyright 2026 Dataset Generator Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license.

/*
Package generator 实现并发数据集生成引擎。

引擎将「生成 T 条训练样本」的逻辑请求展开为大量有界并发的后端调用：

  - 全局最多 MaxConcurrentBatches 个批次同时执行（semaphore）
  - 每个批次拆分为至多 MaxConcurrentRequestsPerBatch 个并发子请求
  - 每个后端拥有独立的速率限制器（最小请求间隔 1s/rps）
  - 批次失败按固定间隔重试，最多 MaxRetries 次
  - 所有阻塞点（许可等待、限流等待、网络调用、重试休眠）均可被
    ctx 取消立即打断；取消是协作式的，不强杀在途请求
  - 批次结果经单消费者聚合协程折叠为进度快照与结果集，
    最终按 BatchID 升序拼接，缺失批次跳过——部分结果是合法输出

失败隔离：单个批次重试耗尽或被取消不影响其他批次；Run 仅在配置
非法时返回错误，不因部分批次失败而失败。
*/
package generator
